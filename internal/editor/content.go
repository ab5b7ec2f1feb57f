package editor

// Ticket identifies one content fetch. A result is only applied through
// the ticket that requested it.
type Ticket struct {
	FileID string
	Gen    uint64
}

// ContentCache holds the text of open files and arbitrates fetch results.
//
// Only the active file's text is visible. A fetch result for a file that
// is no longer active is never shown; it is kept as that tab's text so that
// switching back needs no second fetch. Dirty state is not tracked here;
// that belongs to the Store.
type ContentCache struct {
	active   string
	texts    map[string]string
	inflight map[string]uint64
	gen      uint64
}

// NewContentCache creates an empty cache.
func NewContentCache() *ContentCache {
	return &ContentCache{
		texts:    make(map[string]string),
		inflight: make(map[string]uint64),
	}
}

// Active returns the id of the file whose text is visible.
func (c *ContentCache) Active() string {
	return c.active
}

// Activate makes fileID the visible file. It returns a ticket and true when
// a fetch must be issued: the text has never arrived and no fetch for it is
// outstanding. An empty fileID clears the visible file.
func (c *ContentCache) Activate(fileID string) (Ticket, bool) {
	c.active = fileID
	if fileID == "" {
		return Ticket{}, false
	}
	if _, ok := c.texts[fileID]; ok {
		return Ticket{}, false
	}
	if _, ok := c.inflight[fileID]; ok {
		return Ticket{}, false
	}
	c.gen++
	c.inflight[fileID] = c.gen
	return Ticket{FileID: fileID, Gen: c.gen}, true
}

// Resolve records the result of a fetch and reports whether it is the
// visible file's text. A result whose ticket was superseded by an eviction
// is dropped and reports false.
func (c *ContentCache) Resolve(t Ticket, text string) bool {
	if gen, ok := c.inflight[t.FileID]; !ok || gen != t.Gen {
		return false
	}
	delete(c.inflight, t.FileID)
	c.texts[t.FileID] = text
	return t.FileID == c.active
}

// Fail ends a fetch without content, so the next activation fetches
// again. It reports whether the ticket was still current.
func (c *ContentCache) Fail(t Ticket) bool {
	if gen, ok := c.inflight[t.FileID]; !ok || gen != t.Gen {
		return false
	}
	delete(c.inflight, t.FileID)
	return true
}

// Current returns the visible file's text, if it has arrived.
func (c *ContentCache) Current() (string, bool) {
	if c.active == "" {
		return "", false
	}
	text, ok := c.texts[c.active]
	return text, ok
}

// Text returns the retained text of any open file.
func (c *ContentCache) Text(fileID string) (string, bool) {
	text, ok := c.texts[fileID]
	return text, ok
}

// Pending reports whether a fetch for fileID is outstanding.
func (c *ContentCache) Pending(fileID string) bool {
	_, ok := c.inflight[fileID]
	return ok
}

// Retain updates the text kept for a loaded file, typically with the
// widget's value when switching away from it. Files whose text never
// arrived are left alone.
func (c *ContentCache) Retain(fileID, text string) {
	if _, ok := c.texts[fileID]; ok {
		c.texts[fileID] = text
	}
}

// Evict forgets a closed file, including any outstanding fetch.
func (c *ContentCache) Evict(fileID string) {
	delete(c.texts, fileID)
	delete(c.inflight, fileID)
	if c.active == fileID {
		c.active = ""
	}
}
