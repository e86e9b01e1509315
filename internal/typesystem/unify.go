package typesystem

// Unify attempts to find the most general substitution that makes t1 and t2 equal.
// Unification is structural: function types unify argument-wise then result-wise.
func Unify(t1, t2 Type) (Subst, error) {
	s, err := unifyInternal(t1, t2)
	if err != nil {
		if te, ok := err.(*TypeError); ok && !sameOperands(te, t1, t2) {
			return nil, errContext(t1, t2, te)
		}
		return nil, err
	}
	return s, nil
}

// sameOperands compares structurally; Type values holding slices are not comparable with ==.
func sameOperands(te *TypeError, t1, t2 Type) bool {
	return te.Left.String() == t1.String() && te.Right.String() == t2.String()
}

func unifyInternal(t1, t2 Type) (Subst, error) {
	switch t1 := t1.(type) {
	case TVar:
		return Bind(t1, t2)
	case TCon:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TCon:
			if t1.Name == t2.Name {
				return Subst{}, nil
			}
			return nil, errMismatch(t1, t2, "type constant mismatch")
		case TApp:
			if HeadName(t2) == t1.Name {
				return nil, errArity(t1, t2, 0, len(t2.Args))
			}
			return nil, errMismatch(t1, t2, "type constant mismatch")
		default:
			return nil, errMismatch(t1, t2, "unknown type")
		}
	case TApp:
		switch t2 := t2.(type) {
		case TVar:
			return Bind(t2, t1)
		case TCon:
			if HeadName(t1) == t2.Name {
				return nil, errArity(t1, t2, len(t1.Args), 0)
			}
			return nil, errMismatch(t1, t2, "type constant mismatch")
		case TApp:
			return unifyApp(t1, t2)
		default:
			return nil, errMismatch(t1, t2, "unknown type")
		}
	default:
		return nil, errMismatch(t1, t2, "unknown type")
	}
}

func unifyApp(t1, t2 TApp) (Subst, error) {
	// Higher-kinded case: f a1..am (variable constructor) against C b1..bn.
	// With m <= n, f binds to the partial application C b1..b(n-m).
	if t1Var, ok := t1.Constructor.(TVar); ok && len(t1.Args) <= len(t2.Args) {
		return unifyHigherKinded(t1Var, t1.Args, t2)
	}
	if t2Var, ok := t2.Constructor.(TVar); ok && len(t2.Args) <= len(t1.Args) {
		return unifyHigherKinded(t2Var, t2.Args, t1)
	}

	// Constructors must match by name and arity before any argument is examined.
	c1, ok1 := t1.Constructor.(TCon)
	c2, ok2 := t2.Constructor.(TCon)
	if ok1 && ok2 {
		if c1.Name != c2.Name {
			return nil, errMismatch(t1, t2, "type constructor mismatch")
		}
		if len(t1.Args) != len(t2.Args) {
			return nil, errArity(t1, t2, len(t1.Args), len(t2.Args))
		}
	}

	s1, err := unifyInternal(t1.Constructor, t2.Constructor)
	if err != nil {
		return nil, err
	}
	if len(t1.Args) != len(t2.Args) {
		return nil, errArity(t1, t2, len(t1.Args), len(t2.Args))
	}

	for i := 0; i < len(t1.Args); i++ {
		arg1 := t1.Args[i].Apply(s1)
		arg2 := t2.Args[i].Apply(s1)
		s2, err := unifyInternal(arg1, arg2)
		if err != nil {
			return nil, err
		}
		s1 = s1.Compose(s2)
	}
	return s1, nil
}

func unifyHigherKinded(ctor TVar, args []Type, concrete TApp) (Subst, error) {
	numExtra := len(concrete.Args) - len(args)

	var partialType Type
	if numExtra == 0 {
		partialType = concrete.Constructor
	} else {
		partialType = TApp{
			Constructor: concrete.Constructor,
			Args:        concrete.Args[:numExtra],
		}
	}

	s1, err := Bind(ctor, partialType)
	if err != nil {
		return nil, err
	}

	for i := 0; i < len(args); i++ {
		arg1 := args[i].Apply(s1)
		arg2 := concrete.Args[numExtra+i].Apply(s1)
		s2, err := unifyInternal(arg1, arg2)
		if err != nil {
			return nil, err
		}
		s1 = s1.Compose(s2)
	}
	return s1, nil
}

// Bind binds a type variable to a type, performing the occurs check
// and the type-class instance check.
func Bind(tv TVar, t Type) (Subst, error) {
	if other, ok := t.(TVar); ok {
		return bindVars(tv, other)
	}

	// Occurs check: ensure tv does not appear in t (to avoid infinite types like a = [a])
	if OccursCheck(tv, t) {
		return nil, errOccurs(tv, t)
	}

	if missing := tv.Constraints.Missing(t); len(missing) > 0 {
		return nil, errNoInstance(tv, t, missing)
	}

	return Subst{tv.Name: t}, nil
}

// bindVars unifies two variables, merging their class constraints.
func bindVars(v1, v2 TVar) (Subst, error) {
	if v1.Name == v2.Name {
		return Subst{}, nil
	}

	merged := v1.Constraints.Merge(v2.Constraints)
	if !merged.Satisfiable() {
		return nil, errConflict(v1, v2, merged)
	}

	switch {
	case merged.Equal(v2.Constraints):
		return Subst{v1.Name: v2}, nil
	case merged.Equal(v1.Constraints):
		return Subst{v2.Name: v1}, nil
	default:
		// Neither side carries all constraints: both point to a fresh variable that does.
		fresh := NewVar(merged...)
		return Subst{v1.Name: fresh, v2.Name: fresh}, nil
	}
}

// OccursCheck returns true if tv appears free in t.
func OccursCheck(tv TVar, t Type) bool {
	for _, v := range t.FreeTypeVariables() {
		if v.Name == tv.Name {
			return true
		}
	}
	return false
}
