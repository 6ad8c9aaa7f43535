// Package throttle limits failed login attempts per device.
//
// A device is identified by the fingerprint of its user agent and source IP,
// independent of the account being attempted. Each device moves through
// clean, counting and blocked states:
//
//	t, err := throttle.New(throttle.WithConfig(cfg))
//	if st := t.CheckStatus(ua, ip); st.Blocked {
//		// reject, tell the client st.RemainingSeconds
//	}
//	if !verified {
//		st := t.RecordFailure(ua, ip) // st.AttemptsLeft for the client
//	} else {
//		t.Reset(ua, ip)
//	}
//
// Sweep bounds memory: besides dropping expired entries it evicts everything
// but recent activity once MaxEntries is exceeded, so rotating fingerprints
// cannot grow the table without limit.
package throttle
