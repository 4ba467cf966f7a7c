// Package testutil provides lifecycle helpers for test components.
//
// A TestComponent is a component.Component with Reset, Snapshot, and
// Restore. The discovery/testutil stub registry is one:
//
//	func TestRegister(t *testing.T) {
//	    reg := dtestutil.NewRegistry()
//	    testutil.T(t).Setup(reg)
//	    // reg is stopped when the test ends
//	}
package testutil
