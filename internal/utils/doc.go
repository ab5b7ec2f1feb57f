// Package utils provides validation helpers shared by the channel client and
// the workspace server.
//
// Validation:
//   - Frame size limits, checked before a frame is written or decoded
//   - JSON structure and nesting depth of frame payloads
//
// Example Usage:
//
//	validator := utils.NewFrameValidator(8 * 1024 * 1024)
//	if err := validator.ValidateFrame(data); err != nil {
//	    return err
//	}
package utils
