package sqlite_test

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/storage/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAtomRepository_UpsertAndGet(t *testing.T) {
	repo, err := sqlite.NewAtomRepository(openTestDB(t))
	require.NoError(t, err)

	atom := domain.ExperienceAtom{AtomId: "atom-1", Domain: "engineering", Title: "Go", Claim: "built things", Verified: true}
	require.NoError(t, repo.Upsert(atom))

	got, ok := repo.Get(domain.AtomId("atom-1"))
	require.True(t, ok)
	assert.Equal(t, atom.Title, got.Title)
	assert.True(t, got.Verified)
}

func TestAtomRepository_GetMissingReturnsFalse(t *testing.T) {
	repo, err := sqlite.NewAtomRepository(openTestDB(t))
	require.NoError(t, err)

	_, ok := repo.Get(domain.AtomId("missing"))
	assert.False(t, ok)
}

func TestAtomRepository_ListVerifiedExcludesUnverified(t *testing.T) {
	repo, err := sqlite.NewAtomRepository(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(domain.ExperienceAtom{AtomId: "atom-1", Verified: true}))
	require.NoError(t, repo.Upsert(domain.ExperienceAtom{AtomId: "atom-2", Verified: false}))

	verified := repo.ListVerified()
	require.Len(t, verified, 1)
	assert.Equal(t, domain.AtomId("atom-1"), verified[0].AtomId)

	assert.Len(t, repo.ListAll(), 2)
}

func TestAtomRepository_UpsertReplacesExisting(t *testing.T) {
	repo, err := sqlite.NewAtomRepository(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(domain.ExperienceAtom{AtomId: "atom-1", Title: "v1"}))
	require.NoError(t, repo.Upsert(domain.ExperienceAtom{AtomId: "atom-1", Title: "v2"}))

	got, ok := repo.Get(domain.AtomId("atom-1"))
	require.True(t, ok)
	assert.Equal(t, "v2", got.Title)
	assert.Len(t, repo.ListAll(), 1)
}

func TestOpportunityRepository_UpsertAndGet(t *testing.T) {
	repo, err := sqlite.NewOpportunityRepository(openTestDB(t))
	require.NoError(t, err)

	opp := domain.Opportunity{
		OpportunityId: "opp-1",
		Company:       "Acme",
		RoleTitle:     "Engineer",
		Requirements:  []domain.Requirement{{Text: "Go experience"}},
	}
	require.NoError(t, repo.Upsert(opp))

	got, ok := repo.Get(domain.OpportunityId("opp-1"))
	require.True(t, ok)
	assert.Equal(t, "Acme", got.Company)
	require.Len(t, got.Requirements, 1)
	assert.Equal(t, "Go experience", got.Requirements[0].Text)
}

func TestOpportunityRepository_ListAll(t *testing.T) {
	repo, err := sqlite.NewOpportunityRepository(openTestDB(t))
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(domain.Opportunity{OpportunityId: "opp-1"}))
	require.NoError(t, repo.Upsert(domain.Opportunity{OpportunityId: "opp-2"}))

	all := repo.ListAll()
	require.Len(t, all, 2)
}
