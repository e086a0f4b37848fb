package compiler

func (c *Compiler) beginScope() {
	c.scopes = append(c.scopes, make(map[string]bool))
}

func (c *Compiler) endScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declare adds name to the innermost scope. It reports false when the
// name is already declared there.
func (c *Compiler) declare(name string) bool {
	scope := c.scopes[len(c.scopes)-1]
	if scope[name] {
		return false
	}
	scope[name] = true
	return true
}

// resolveLocal reports whether name is a local visible from the current
// scope. Method bodies see the locals of the scope they are defined in.
func (c *Compiler) resolveLocal(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return true
		}
	}
	return false
}
