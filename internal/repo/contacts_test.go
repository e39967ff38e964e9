package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/testutil"
)

func TestUpsertByName_InsertThenOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.contacts.UpsertByName(ctx, model.Contact{Name: "Acme Corp", Email: "a@acme.test", Phone: "555"})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := f.contacts.UpsertByName(ctx, model.Contact{Name: "  acme corp ", Email: "b@acme.test"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := f.contacts.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Contact{ID: first.ID, Name: "acme corp", Email: "b@acme.test"}, got,
		"an upsert replaces the whole record")
}

func TestUpsertByName_UnicodeFolding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contacts.UpsertByName(ctx, model.Contact{Name: "Weiß Design"})
	require.NoError(t, err)
	_, err = f.contacts.UpsertByName(ctx, model.Contact{Name: "WEISS DESIGN"})
	require.NoError(t, err)
	_, err = f.contacts.UpsertByName(ctx, model.Contact{Name: "Other"})
	require.NoError(t, err)

	list, err := f.contacts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUpsertByName_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contacts.UpsertByName(ctx, model.Contact{Name: "   "})
	require.Error(t, err)
	assert.True(t, apperr.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "name is required")

	list, err := f.contacts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContactSave_ByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contacts.Save(ctx, model.Contact{Name: "Acme"})
	require.NoError(t, err)

	c.Phone = "555-0100"
	updated, err := f.contacts.Save(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, c.ID, updated.ID)

	list, err := f.contacts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "555-0100", list[0].Phone)
}

func TestContactDelete_ConfirmationGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contacts.Save(ctx, model.Contact{Name: "Acme"})
	require.NoError(t, err)

	no := testutil.NewStaticConfirmer(false)
	deleted, err := f.contacts.Delete(ctx, c.ID, no)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, []string{"Delete Client"}, no.Prompts())

	_, err = f.contacts.Get(ctx, c.ID)
	require.NoError(t, err)

	deleted, err = f.contacts.Delete(ctx, c.ID, testutil.NewStaticConfirmer(true))
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.contacts.Get(ctx, c.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestContactDelete_MissingIsNotFound(t *testing.T) {
	f := newFixture(t)

	deleted, err := f.contacts.Delete(context.Background(), 7, testutil.NewStaticConfirmer(true))
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.False(t, deleted)
}

func TestContactPick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.contacts.Save(ctx, model.Contact{
		Name:    "Initech",
		Email:   "ap@initech.test",
		Phone:   "555-0199",
		Address: "4120 Freidrich Ln",
	})
	require.NoError(t, err)

	s := f.session()
	require.NoError(t, s.ApplyFieldEdit("notes", "Net 30"))
	require.NoError(t, f.contacts.Pick(ctx, s, c.ID))

	doc := s.Document()
	assert.Equal(t, "Initech", doc.ClientName)
	assert.Equal(t, "ap@initech.test", doc.ClientEmail)
	assert.Equal(t, "4120 Freidrich Ln", doc.ClientAddress)
	assert.Equal(t, "Net 30", doc.Notes)

	err = f.contacts.Pick(ctx, s, 99)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Initech", s.Document().ClientName)
}
