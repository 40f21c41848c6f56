// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

// SetCodeGenerator replaces the session code source for tests
func (c *Coordinator) SetCodeGenerator(gen func() (string, error)) {
	c.newCode = gen
}
