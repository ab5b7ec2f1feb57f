/*
Package resilience provides the circuit breaker that guards writes to the
remote workspace service.

When the websocket peer keeps failing, the channel stops writing to it and
fails requests immediately, so the editor can show an error notice instead
of queueing work that will never complete. A new connection resets it.

	breaker := resilience.New(resilience.Settings{
		Failures: 5,
		Cooldown: 30 * time.Second,
		OnStateChange: func(from, to resilience.State) {
			log.Warn("Breaker state changed", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	err := breaker.Do(func() error {
		return conn.WriteMessage(websocket.TextMessage, data)
	})

States:

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes ok]-> Closed
	                                             |
	                                         [failure]
	                                             v
	                                           Open
*/
package resilience
