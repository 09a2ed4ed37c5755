/*
Package resilience provides a circuit breaker for the session blob store.

A storage backend that keeps failing (full disk, locked database file) would
otherwise make every snapshot request wait on it. The breaker counts
consecutive failures and, once the threshold is reached, rejects calls with
ErrCircuitOpen until a cooldown passes. It then admits a limited number of
probe calls; enough successes close it again, one failure reopens it.

	Closed --[Failures in a row]-> Open --[Cooldown]-> Half-Open --[Probes ok]-> Closed
	                                 ^                      |
	                                 +------[failure]-------+

# Usage

	breaker := resilience.New("storage", resilience.Settings{
		Failures: 5,
		Cooldown: 30 * time.Second,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, storage.ErrNotFound)
		},
	})

	data, err := resilience.Call(breaker, func() ([]byte, error) {
		return store.Get(key)
	})
*/
package resilience
