package fixture

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/fixkit/errors"
	"github.com/kbukum/fixkit/observability"
	"github.com/kbukum/fixkit/orm"
)

// See verifies that at least one entity matching criteria is persisted.
// Returns a not-found error otherwise.
func (m *Module) See(ctx context.Context, model interface{}, criteria map[string]interface{}) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanSee,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(model))))
	defer span.End()

	count, err := m.Count(ctx, model, criteria)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}

	if count == 0 {
		err := apperrors.NotFound(orm.ModelName(model)).
			WithDetail("criteria", fmt.Sprintf("%v", criteria))
		m.recordVerification(ctx, model, "fail")
		observability.SetSpanError(ctx, err)
		return err
	}

	m.recordVerification(ctx, model, "pass")
	return nil
}

// DontSee verifies that no entity matching criteria is persisted. Returns
// an unexpected-record error naming the count otherwise.
func (m *Module) DontSee(ctx context.Context, model interface{}, criteria map[string]interface{}) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanSee,
		trace.WithAttributes(observability.ModelAttr(orm.ModelName(model))))
	defer span.End()

	count, err := m.Count(ctx, model, criteria)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}

	if count > 0 {
		err := apperrors.UnexpectedRecord(orm.ModelName(model), count).
			WithDetail("criteria", fmt.Sprintf("%v", criteria))
		m.recordVerification(ctx, model, "fail")
		observability.SetSpanError(ctx, err)
		return err
	}

	m.recordVerification(ctx, model, "pass")
	return nil
}

func (m *Module) recordVerification(ctx context.Context, model interface{}, outcome string) {
	if m.metrics == nil {
		return
	}
	if table, err := orm.TableName(model); err == nil {
		m.metrics.RecordVerification(ctx, table, outcome)
	}
}

// TestingT is the subset of *testing.T the assertion helpers need.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...interface{})
}

// SeeT is See wired into a test: a failed verification fails the test.
func (m *Module) SeeT(t TestingT, model interface{}, criteria map[string]interface{}) {
	t.Helper()
	if err := m.See(context.Background(), model, criteria); err != nil {
		t.Fatalf("expected a persisted %s matching %v: %v", orm.ModelName(model), criteria, err)
	}
}

// DontSeeT is DontSee wired into a test.
func (m *Module) DontSeeT(t TestingT, model interface{}, criteria map[string]interface{}) {
	t.Helper()
	if err := m.DontSee(context.Background(), model, criteria); err != nil {
		t.Fatalf("expected no persisted %s matching %v: %v", orm.ModelName(model), criteria, err)
	}
}

// HaveT is Have wired into a test: a failed creation fails the test.
func (m *Module) HaveT(t TestingT, model string, overrides map[string]interface{}) interface{} {
	t.Helper()
	entity, err := m.Have(context.Background(), model, overrides)
	if err != nil {
		t.Fatalf("failed to create %s fixture: %v", model, err)
	}
	return entity
}
