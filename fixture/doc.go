// Package fixture creates, registers, retrieves, and verifies persisted test
// data on top of the orm package. A Module wraps one database connection,
// runs each scenario inside a transaction it rolls back afterwards, and
// remembers what it created in a registry: the most recent entity per model
// and every created entity per model and primary key, so later steps can
// refer back to earlier fixtures without re-querying.
//
//	fx := fixture.New(db, factories, fixture.Config{}, log)
//	testutil.T(t).Setup(fx)
//
//	user, err := fx.Have(ctx, "users", factory.Attrs{"Email": "a@b.c"})
//	err = fx.See(ctx, &User{}, map[string]interface{}{"email": "a@b.c"})
package fixture
