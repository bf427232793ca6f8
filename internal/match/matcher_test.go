package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

func order(id int64, email string) models.Order {
	return models.Order{ID: id, Email: email}
}

func orderWithPhone(id int64, email, phone string) models.Order {
	o := order(id, email)
	o.Phone = &phone
	return o
}

func lead(reference, email, phone string) *models.Lead {
	return &models.Lead{Reference: reference, Email: email, Phone: phone}
}

func TestEmailExactIsCaseAndWhitespaceInsensitive(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{order(1, "user@example.com")}

	got, method, ok := m.Match(lead("PCOD-1", " User@Example.com ", ""), orders)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "email_exact", method)
}

func TestPhoneMatchChecksAllOrderPhones(t *testing.T) {
	m := New(48*time.Hour, nil)
	billing := "+48 577 558 591"
	orders := []models.Order{
		{ID: 7, Email: "other@wp.pl", BillingAddress: &models.Address{Phone: &billing}},
	}

	got, method, ok := m.Match(lead("PCOD-2", "nomatch@gmail.com", "0577558591"), orders)
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "phone", method)
}

func TestPartialEmailIgnoresDomain(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{
		order(1, "alicia@gmail.com"),
		order(2, "alice@yahoo.com"),
	}

	got, method, ok := m.Match(lead("PCOD-3", "alice@gmail.com", ""), orders)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID, "alice must not match alicia")
	assert.Equal(t, "email_local_part", method)
}

func TestDomainVariantMatch(t *testing.T) {
	m := New(48*time.Hour, nil)

	// wp.pl swaps to o2.pl via the fixed table.
	orders := []models.Order{order(4, "kasia@o2.pl")}
	got, method, ok := m.Match(lead("PCOD-4", "kasia@wp.pl", ""), orders)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.ID)
	assert.Equal(t, "email_domain_variant", method)

	// Generic .pl <-> .com swap.
	orders = []models.Order{order(5, "biuro@sklep.com")}
	got, _, ok = m.Match(lead("PCOD-5", "biuro@sklep.pl", ""), orders)
	require.True(t, ok)
	assert.Equal(t, int64(5), got.ID)
}

func TestDomainVariantNoHit(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{order(6, "someone@else.net")}

	_, _, ok := m.Match(lead("PCOD-6", "kasia@wp.pl", ""), orders)
	assert.False(t, ok)
}

func TestPrecedenceEmailBeatsPhone(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{
		orderWithPhone(1, "other@example.com", "577558591"),
		order(2, "user@example.com"),
	}

	got, method, ok := m.Match(lead("PCOD-7", "user@example.com", "577558591"), orders)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID, "exact email match must win over phone match")
	assert.Equal(t, "email_exact", method)
}

func TestTieBreakPrefersCreationWindow(t *testing.T) {
	m := New(48*time.Hour, nil)

	l := lead("PCOD-8", "user@example.com", "")
	l.CreatedAt = "2026-03-10 12:00:00"

	far := order(1, "user@example.com")
	far.CreatedAt = "2026-01-01T09:00:00Z"
	near := order(2, "user@example.com")
	near.CreatedAt = "2026-03-09T18:00:00Z"

	got, _, ok := m.Match(l, []models.Order{far, near})
	require.True(t, ok)
	assert.Equal(t, int64(2), got.ID)
}

func TestTieBreakFallsBackToFirstResult(t *testing.T) {
	m := New(48*time.Hour, nil)

	l := lead("PCOD-9", "user@example.com", "")
	l.CreatedAt = "2026-03-10 12:00:00"

	a := order(1, "user@example.com")
	a.CreatedAt = "2026-01-01T09:00:00Z"
	b := order(2, "user@example.com")
	b.CreatedAt = "2026-01-02T09:00:00Z"

	got, _, ok := m.Match(l, []models.Order{a, b})
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
}

func TestNoMatchIsNotAnError(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{order(1, "somebody@example.com")}

	got, method, ok := m.Match(lead("PCOD-10", "nobody@nowhere.pl", "123"), orders)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Empty(t, method)
}

func TestEmptyLeadFieldsMatchNothing(t *testing.T) {
	m := New(48*time.Hour, nil)
	orders := []models.Order{order(1, ""), orderWithPhone(2, "", "")}

	_, _, ok := m.Match(lead("PCOD-11", "", ""), orders)
	assert.False(t, ok)
}

func TestDomainVariants(t *testing.T) {
	variants := DomainVariants("kasia@wp.pl")
	assert.Contains(t, variants, "kasia@o2.pl")
	assert.Contains(t, variants, "kasia@wp.com")

	assert.Empty(t, DomainVariants("not-an-email"))
	assert.Empty(t, DomainVariants(""))
}
