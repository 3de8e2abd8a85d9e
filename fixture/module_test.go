package fixture

import (
	"context"
	"fmt"
	"testing"

	apperrors "github.com/kbukum/fixkit/errors"
	"github.com/kbukum/fixkit/factory"
	"github.com/kbukum/fixkit/logger"
	"github.com/kbukum/fixkit/orm"
	"github.com/kbukum/fixkit/testutil"
	"github.com/kbukum/fixkit/util"
)

type fxUser struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `json:"email" validate:"required,email"`
	Name  string
	Posts []fxPost
}

type fxPost struct {
	ID       uint `gorm:"primaryKey"`
	FxUserID uint
	Title    string
	Views    int
}

func registerFactories(t *testing.T, factories *factory.Registry) {
	t.Helper()
	err := factories.Register("fx_users", factory.Definition{
		New: func() interface{} { return &fxUser{} },
		Attrs: func(seq *factory.Seq) factory.Attrs {
			n := seq.Next()
			return factory.Attrs{
				"Email": fmt.Sprintf("user-%d@example.com", n),
				"Name":  fmt.Sprintf("User %d", n),
			}
		},
	})
	if err != nil {
		t.Fatalf("registering users factory failed: %v", err)
	}

	err = factories.Register("fx_posts", factory.Definition{
		New: func() interface{} { return &fxPost{} },
		Attrs: func(seq *factory.Seq) factory.Attrs {
			return factory.Attrs{"Title": seq.Stringf("post %d")}
		},
	})
	if err != nil {
		t.Fatalf("registering posts factory failed: %v", err)
	}
}

func newTestModule(t *testing.T, cfg Config) *Module {
	t.Helper()
	db, err := orm.Open(context.Background(), orm.Config{
		DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.AutoMigrate(&fxUser{}, &fxPost{}); err != nil {
		t.Fatalf("AutoMigrate() failed: %v", err)
	}

	factories := factory.NewRegistry()
	registerFactories(t, factories)

	fx := New(db, factories, cfg, logger.Nop())
	testutil.T(t).Setup(fx)
	return fx
}

func TestHaveCreatesAndRegisters(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entity, err := fx.Have(ctx, "fx_users", nil)
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	user, ok := entity.(*fxUser)
	if !ok {
		t.Fatalf("Have() returned %T, want *fxUser", entity)
	}
	if user.ID == 0 {
		t.Error("persisted user should have a primary key")
	}
	if user.Email == "" {
		t.Error("factory defaults should be applied")
	}

	latest, ok := fx.Latest(&fxUser{})
	if !ok || latest != entity {
		t.Error("Latest should return the created entity")
	}
	created, ok := fx.Created(&fxUser{}, fmt.Sprint(user.ID))
	if !ok || created != entity {
		t.Error("Created should return the entity by id")
	}

	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"email": user.Email}); err != nil {
		t.Errorf("See() after Have failed: %v", err)
	}
}

func TestHaveOverrides(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entity, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Override"})
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if entity.(*fxUser).Name != "Override" {
		t.Errorf("Name = %q, want Override", entity.(*fxUser).Name)
	}
}

func TestHaveNoFactory(t *testing.T) {
	fx := newTestModule(t, Config{})
	_, err := fx.Have(context.Background(), "ghosts", nil)
	if !apperrors.IsCode(err, apperrors.ErrCodeNoFactory) {
		t.Errorf("error = %v, want NO_FACTORY", err)
	}
}

func TestHaveMany(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entities, err := fx.HaveMany(ctx, "fx_users", 3, nil)
	if err != nil {
		t.Fatalf("HaveMany() failed: %v", err)
	}
	if len(entities) != 3 {
		t.Fatalf("got %d entities, want 3", len(entities))
	}

	emails := make(map[string]bool)
	for _, e := range entities {
		emails[e.(*fxUser).Email] = true
	}
	if len(emails) != 3 {
		t.Error("generated emails should be unique across HaveMany")
	}

	count, err := fx.Count(ctx, &fxUser{}, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	if _, err := fx.HaveMany(ctx, "fx_users", 0, nil); err == nil {
		t.Error("HaveMany with zero count should fail")
	}
}

func TestHaveEntity(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	user := &fxUser{Email: "custom@example.com", Name: "Custom"}
	if err := fx.HaveEntity(ctx, user); err != nil {
		t.Fatalf("HaveEntity() failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("persisted entity should have a primary key")
	}

	latest, ok := fx.Latest(&fxUser{})
	if !ok || latest.(*fxUser).Email != "custom@example.com" {
		t.Error("HaveEntity should register the entity as latest")
	}
}

func TestHaveValidation(t *testing.T) {
	fx := newTestModule(t, Config{ValidateEntities: true})
	ctx := context.Background()

	// The factory email is valid; an override breaking it must be rejected
	// before anything reaches the database.
	_, err := fx.Have(ctx, "fx_users", factory.Attrs{"Email": "not-an-email"})
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidInput) {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}

	count, err := fx.Count(ctx, &fxUser{}, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("invalid entity was persisted, count = %d", count)
	}
}

func TestGrabEntity(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if _, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Target"}); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}

	var got fxUser
	if err := fx.GrabEntity(ctx, &got, map[string]interface{}{"name": "Target"}); err != nil {
		t.Fatalf("GrabEntity() failed: %v", err)
	}
	if got.Name != "Target" || got.ID == 0 {
		t.Errorf("grabbed entity = %+v", got)
	}

	var missing fxUser
	err := fx.GrabEntity(ctx, &missing, map[string]interface{}{"name": "Nobody"})
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestGrabEntities(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if _, err := fx.HaveMany(ctx, "fx_users", 2, factory.Attrs{"Name": "Batch"}); err != nil {
		t.Fatalf("HaveMany() failed: %v", err)
	}
	if _, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Other"}); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}

	var got []fxUser
	if err := fx.GrabEntities(ctx, &got, map[string]interface{}{"name": "Batch"}); err != nil {
		t.Fatalf("GrabEntities() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d entities, want 2", len(got))
	}

	var none []fxUser
	if err := fx.GrabEntities(ctx, &none, map[string]interface{}{"name": "Nobody"}); err != nil {
		t.Errorf("empty result should not be an error: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d entities, want 0", len(none))
	}

	if err := fx.GrabEntities(ctx, got, nil); err == nil {
		t.Error("non-pointer dest should fail")
	}
}

func TestGrabField(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entity, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "FieldTarget"})
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}

	value, err := fx.GrabField(ctx, &fxUser{}, "email", map[string]interface{}{"name": "FieldTarget"})
	if err != nil {
		t.Fatalf("GrabField() failed: %v", err)
	}
	if fmt.Sprint(value) != entity.(*fxUser).Email {
		t.Errorf("value = %v, want %s", value, entity.(*fxUser).Email)
	}

	// Go field name works too.
	if _, err := fx.GrabField(ctx, &fxUser{}, "Email", map[string]interface{}{"name": "FieldTarget"}); err != nil {
		t.Errorf("GrabField() by Go field name failed: %v", err)
	}

	_, err = fx.GrabField(ctx, &fxUser{}, "nonexistent", nil)
	if !apperrors.IsCode(err, apperrors.ErrCodeInvalidPath) {
		t.Errorf("error = %v, want INVALID_PATH", err)
	}

	_, err = fx.GrabField(ctx, &fxUser{}, "email", map[string]interface{}{"name": "Nobody"})
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestSeeAndDontSee(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if _, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Present"}); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}

	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"name": "Present"}); err != nil {
		t.Errorf("See() failed for an existing record: %v", err)
	}
	if err := fx.DontSee(ctx, &fxUser{}, map[string]interface{}{"name": "Absent"}); err != nil {
		t.Errorf("DontSee() failed for a missing record: %v", err)
	}

	err := fx.See(ctx, &fxUser{}, map[string]interface{}{"name": "Absent"})
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("See() error = %v, want NOT_FOUND", err)
	}

	err = fx.DontSee(ctx, &fxUser{}, map[string]interface{}{"name": "Present"})
	if !apperrors.IsCode(err, apperrors.ErrCodeUnexpectedRecord) {
		t.Errorf("DontSee() error = %v, want UNEXPECTED_RECORD", err)
	}
}

func TestSeeWithOperatorsAndAssociations(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	user, err := fx.Have(ctx, "fx_users", nil)
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	_, err = fx.Have(ctx, "fx_posts", factory.Attrs{
		"FxUserID": user.(*fxUser).ID,
		"Title":    "joined",
		"Views":    42,
	})
	if err != nil {
		t.Fatalf("Have() for post failed: %v", err)
	}

	if err := fx.See(ctx, &fxPost{}, map[string]interface{}{"views": "gt.40"}); err != nil {
		t.Errorf("See() with operator failed: %v", err)
	}
	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"posts.title": "joined"}); err != nil {
		t.Errorf("See() through association failed: %v", err)
	}
	if err := fx.DontSee(ctx, &fxUser{}, map[string]interface{}{"posts.views": "gt.100"}); err != nil {
		t.Errorf("DontSee() through association failed: %v", err)
	}
}

// recorder implements TestingT to observe assertion helper behavior.
type recorder struct {
	failed string
}

func (r *recorder) Helper() {}
func (r *recorder) Fatalf(format string, args ...interface{}) {
	r.failed = fmt.Sprintf(format, args...)
}

func TestAssertionHelpers(t *testing.T) {
	fx := newTestModule(t, Config{})

	entity := fx.HaveT(t, "fx_users", map[string]interface{}{"Name": "Helper"})
	if entity.(*fxUser).Name != "Helper" {
		t.Errorf("HaveT entity = %+v", entity)
	}

	fx.SeeT(t, &fxUser{}, map[string]interface{}{"name": "Helper"})
	fx.DontSeeT(t, &fxUser{}, map[string]interface{}{"name": "Absent"})

	rec := &recorder{}
	fx.SeeT(rec, &fxUser{}, map[string]interface{}{"name": "Absent"})
	if rec.failed == "" {
		t.Error("SeeT should fail the test for a missing record")
	}
}

func TestRefresh(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entity, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Before"})
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	user := entity.(*fxUser)

	// Update behind the entity's back, then stale the in-memory copy.
	sess, err := fx.guard()
	if err != nil {
		t.Fatalf("guard() failed: %v", err)
	}
	if err := sess.DB().Model(&fxUser{}).Where("id = ?", user.ID).Update("name", "After").Error; err != nil {
		t.Fatalf("raw update failed: %v", err)
	}
	user.Name = "Stale"

	if err := fx.Refresh(ctx, user); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if user.Name != "After" {
		t.Errorf("Name after refresh = %q, want After", user.Name)
	}

	if err := fx.Refresh(ctx, &fxUser{}); !apperrors.IsCode(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("refreshing an unsaved entity: error = %v, want INVALID_INPUT", err)
	}
}

func TestPersist(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	entity, err := fx.Have(ctx, "fx_users", nil)
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	user := entity.(*fxUser)
	user.Name = "Updated"

	if err := fx.Persist(ctx, user); err != nil {
		t.Fatalf("Persist() failed: %v", err)
	}
	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"name": "Updated"}); err != nil {
		t.Errorf("See() after Persist failed: %v", err)
	}
}

func TestScenarioRollback(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if err := fx.BeforeScenario(ctx, "checkout"); err != nil {
		t.Fatalf("BeforeScenario() failed: %v", err)
	}
	if _, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Ephemeral"}); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"name": "Ephemeral"}); err != nil {
		t.Fatalf("See() inside scenario failed: %v", err)
	}
	if err := fx.AfterScenario(ctx, "checkout"); err != nil {
		t.Fatalf("AfterScenario() failed: %v", err)
	}

	if err := fx.DontSee(ctx, &fxUser{}, map[string]interface{}{"name": "Ephemeral"}); err != nil {
		t.Errorf("scenario writes survived the rollback: %v", err)
	}
	if fx.Registry().Len() != 0 {
		t.Error("registry should be empty after the scenario")
	}
}

func TestScenarioCommitWhenCleanupDisabled(t *testing.T) {
	fx := newTestModule(t, Config{Cleanup: util.Ptr(false)})
	ctx := context.Background()

	if err := fx.BeforeScenario(ctx, "persisting"); err != nil {
		t.Fatalf("BeforeScenario() failed: %v", err)
	}
	if _, err := fx.Have(ctx, "fx_users", factory.Attrs{"Name": "Durable"}); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.AfterScenario(ctx, "persisting"); err != nil {
		t.Fatalf("AfterScenario() failed: %v", err)
	}

	if err := fx.See(ctx, &fxUser{}, map[string]interface{}{"name": "Durable"}); err != nil {
		t.Errorf("writes should survive when cleanup is disabled: %v", err)
	}
}

func TestFlushInsideScenario(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if err := fx.Flush(ctx); err != nil {
		t.Errorf("Flush() outside a scenario should be a no-op: %v", err)
	}

	if err := fx.BeforeScenario(ctx, "flush"); err != nil {
		t.Fatalf("BeforeScenario() failed: %v", err)
	}
	defer func() { _ = fx.AfterScenario(ctx, "flush") }()

	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.Flush(ctx); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
	if err := fx.See(ctx, &fxUser{}, nil); err != nil {
		t.Errorf("flushed fixture should be visible: %v", err)
	}
}

func TestClear(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if err := fx.BeforeScenario(ctx, "clearing"); err != nil {
		t.Fatalf("BeforeScenario() failed: %v", err)
	}
	defer func() { _ = fx.AfterScenario(ctx, "clearing") }()

	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	if fx.Registry().Len() != 0 {
		t.Error("registry should be empty after Clear")
	}
	if err := fx.DontSee(ctx, &fxUser{}, nil); err != nil {
		t.Errorf("pending writes should be discarded by Clear: %v", err)
	}

	// A fresh transaction must be open so later fixtures still roll back.
	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Errorf("Have() after Clear failed: %v", err)
	}
}

func TestReconfigure(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.Reconfigure(ctx, Config{MaxJoinDepth: 5}); err != nil {
		t.Fatalf("Reconfigure() failed: %v", err)
	}
	if fx.Registry().Len() != 0 {
		t.Error("Reconfigure should clear the registry")
	}
	if fx.maxDepth() != 5 {
		t.Errorf("maxDepth = %d after Reconfigure, want 5", fx.maxDepth())
	}

	if err := fx.Reconfigure(ctx, Config{MaxJoinDepth: 99}); err == nil {
		t.Error("invalid configuration should be rejected")
	}
}

func TestOperationsBeforeStart(t *testing.T) {
	db, err := orm.Open(context.Background(), orm.Config{
		DSN: "file:prestart?mode=memory&cache=shared",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fx := New(db, nil, Config{}, logger.Nop())
	ctx := context.Background()

	if _, err := fx.Have(ctx, "fx_users", nil); !apperrors.IsCode(err, apperrors.ErrCodeNoFactory) && !apperrors.IsCode(err, apperrors.ErrCodeNotStarted) {
		t.Errorf("Have() before Start: error = %v", err)
	}
	if err := fx.See(ctx, &fxUser{}, nil); !apperrors.IsCode(err, apperrors.ErrCodeNotStarted) {
		t.Errorf("See() before Start: error = %v, want NOT_STARTED", err)
	}
	if err := fx.Flush(ctx); !apperrors.IsCode(err, apperrors.ErrCodeNotStarted) {
		t.Errorf("Flush() before Start: error = %v, want NOT_STARTED", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}

	snap, err := fx.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() failed: %v", err)
	}
	if _, err := fx.Have(ctx, "fx_users", nil); err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if fx.Registry().Len() != 2 {
		t.Fatalf("registry len = %d, want 2", fx.Registry().Len())
	}

	if err := fx.Restore(ctx, snap); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if fx.Registry().Len() != 1 {
		t.Errorf("registry len after restore = %d, want 1", fx.Registry().Len())
	}

	if err := fx.Restore(ctx, "wrong type"); err == nil {
		t.Error("Restore with a foreign snapshot type should fail")
	}
}

func TestResetRewindsSequences(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	first, err := fx.Have(ctx, "fx_users", nil)
	if err != nil {
		t.Fatalf("Have() failed: %v", err)
	}
	if err := fx.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if fx.Registry().Len() != 0 {
		t.Error("registry should be empty after Reset")
	}

	again, err := fx.Have(ctx, "fx_users", nil)
	if err != nil {
		t.Fatalf("Have() after Reset failed: %v", err)
	}
	if first.(*fxUser).Email != again.(*fxUser).Email {
		t.Error("factory sequences should rewind on Reset")
	}
}

func TestHealthAndDescribe(t *testing.T) {
	fx := newTestModule(t, Config{})
	ctx := context.Background()

	if h := fx.Health(ctx); h.Status != "healthy" {
		t.Errorf("health = %s, want healthy", h.Status)
	}
	desc := fx.Describe()
	if desc.Type != "fixture" || desc.Details == "" {
		t.Errorf("unexpected description: %+v", desc)
	}
}
