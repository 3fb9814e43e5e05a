package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wedmac/lead-marketplace/internal/migrations"
	"github.com/wedmac/lead-marketplace/internal/models"
)

func setupTestDB(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

func createTestArtist(t *testing.T, s *Storage, username, status string, credits int) int {
	t.Helper()
	ctx := context.Background()

	id, err := s.RegisterArtist(ctx, models.Artist{
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "9876543210",
		PasswordHash: "hash",
		Role:         "artist",
		ReferralCode: "WM" + username,
	})
	require.NoError(t, err)

	if status != models.ArtistStatusPending {
		_, err = s.DB.Exec(`UPDATE artists SET status = $1 WHERE id = $2`, status, id)
		require.NoError(t, err)
	}
	if credits > 0 {
		_, err = s.Credit(ctx, id, credits, models.TxPurchase, "test credits", "TEST")
		require.NoError(t, err)
	}
	return id
}

func createTestLead(t *testing.T, s *Storage, maxClaims int) int {
	t.Helper()

	id, err := s.CreateLead(context.Background(), models.Lead{
		FirstName:   "Priya",
		Phone:       "9876543210",
		EventType:   "wedding",
		BookingDate: time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC),
		Source:      "website",
		MaxClaims:   maxClaims,
	})
	require.NoError(t, err)
	return id
}

func createTestPlan(t *testing.T, s *Storage, name string, price float64, totalLeads, durationDays int) int {
	t.Helper()

	var id int
	err := s.DB.QueryRow(
		`INSERT INTO subscription_plans (name, price, total_leads, duration_days)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		name, price, totalLeads, durationDays).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestClaimLead_ConcurrentLimit(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	leadID := createTestLead(t, storage, 2)

	const workers = 5
	artistIDs := make([]int, workers)
	for i := range workers {
		artistIDs[i] = createTestArtist(t, storage, "artist"+string(rune('a'+i)), models.ArtistStatusApproved, 3)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = storage.ClaimLead(ctx, leadID, artistIDs[i])
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrCapacityReached)
	}
	assert.Equal(t, 2, succeeded, "exactly max_claims claims must succeed")

	stats, err := storage.ClaimStats(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ClaimedCount)
	assert.Equal(t, 0, stats.AvailableSlots)

	var claimRows int
	require.NoError(t, storage.DB.QueryRow(
		`SELECT COUNT(*) FROM lead_claims WHERE lead_id = $1`, leadID).Scan(&claimRows))
	assert.Equal(t, 2, claimRows)
}

func TestClaimLead_Rules(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	leadID := createTestLead(t, storage, 3)
	rich := createTestArtist(t, storage, "rich", models.ArtistStatusApproved, 2)
	broke := createTestArtist(t, storage, "broke", models.ArtistStatusApproved, 0)

	t.Run("insufficient credits", func(t *testing.T) {
		_, err := storage.ClaimLead(ctx, leadID, broke)
		assert.ErrorIs(t, err, ErrInsufficientCredits)

		balance, err := storage.GetBalance(ctx, broke)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})

	t.Run("claim debits one credit", func(t *testing.T) {
		count, err := storage.ClaimLead(ctx, leadID, rich)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		balance, err := storage.GetBalance(ctx, rich)
		require.NoError(t, err)
		assert.Equal(t, 1, balance)
	})

	t.Run("duplicate claim rejected without debit", func(t *testing.T) {
		_, err := storage.ClaimLead(ctx, leadID, rich)
		assert.ErrorIs(t, err, ErrAlreadyClaimed)

		balance, err := storage.GetBalance(ctx, rich)
		require.NoError(t, err)
		assert.Equal(t, 1, balance)
	})

	t.Run("unknown lead", func(t *testing.T) {
		_, err := storage.ClaimLead(ctx, 9999, rich)
		assert.ErrorIs(t, err, ErrLeadNotFound)
	})
}

func TestBookLead(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	leadID := createTestLead(t, storage, 3)
	first := createTestArtist(t, storage, "first", models.ArtistStatusApproved, 3)
	second := createTestArtist(t, storage, "second", models.ArtistStatusApproved, 3)
	outsider := createTestArtist(t, storage, "outsider", models.ArtistStatusApproved, 3)

	_, err := storage.ClaimLead(ctx, leadID, first)
	require.NoError(t, err)
	_, err = storage.ClaimLead(ctx, leadID, second)
	require.NoError(t, err)

	t.Run("booking requires claim", func(t *testing.T) {
		err := storage.BookLead(ctx, leadID, outsider)
		assert.ErrorIs(t, err, ErrNotClaimed)
	})

	t.Run("first booking succeeds and debits", func(t *testing.T) {
		require.NoError(t, storage.BookLead(ctx, leadID, first))

		balance, err := storage.GetBalance(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, 1, balance) // 3 - claim - booking

		lead, err := storage.GetLead(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, models.LeadStatusBooked, lead.Status)
		assert.Equal(t, 1, lead.TotalBookings)
	})

	t.Run("repeated booking by same artist", func(t *testing.T) {
		err := storage.BookLead(ctx, leadID, first)
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	})

	t.Run("single booking policy blocks others", func(t *testing.T) {
		err := storage.BookLead(ctx, leadID, second)
		assert.ErrorIs(t, err, ErrAlreadyBookedByOther)

		balance, err := storage.GetBalance(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, 2, balance) // только claim
	})

	t.Run("activity trail records claim and booking", func(t *testing.T) {
		logs, err := storage.ListActivityLogs(ctx, first, 10, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, models.ActivityBook, logs[0].ActivityType)
		assert.Equal(t, 2, logs[0].LeadsBefore)
		assert.Equal(t, 1, logs[0].LeadsAfter)
		assert.Equal(t, models.ActivityClaim, logs[1].ActivityType)

		page, err := storage.ListActivityLogs(ctx, first, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, models.ActivityClaim, page[0].ActivityType)
	})
}

func TestCreditLedger(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	artistID := createTestArtist(t, storage, "ledger", models.ArtistStatusApproved, 0)

	t.Run("debit below zero rejected", func(t *testing.T) {
		_, err := storage.Credit(ctx, artistID, 1, models.TxPurchase, "initial", "ORDER_1")
		require.NoError(t, err)

		_, err = storage.Debit(ctx, artistID, 2, models.TxConsumption, "too much", "LEAD_1")
		assert.ErrorIs(t, err, ErrInsufficientCredits)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 1, balance)

		var txCount int
		require.NoError(t, storage.DB.QueryRow(
			`SELECT COUNT(*) FROM credit_transactions WHERE artist_id = $1`,
			artistID).Scan(&txCount))
		assert.Equal(t, 1, txCount, "failed debit must not write a journal entry")
	})

	t.Run("journal sum equals balance", func(t *testing.T) {
		_, err := storage.Credit(ctx, artistID, 5, models.TxPurchase, "plan", "ORDER_2")
		require.NoError(t, err)
		_, err = storage.Debit(ctx, artistID, 2, models.TxConsumption, "claims", "LEAD_2")
		require.NoError(t, err)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		sum, err := storage.SumTransactions(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, balance, sum)
		assert.Equal(t, 4, balance)
	})

	t.Run("entries keep before and after", func(t *testing.T) {
		items, err := storage.ListTransactions(ctx, artistID, models.HistoryFilter{}, 50, 0)
		require.NoError(t, err)
		require.NotEmpty(t, items)
		for _, item := range items {
			assert.Equal(t, item.CreditsAfter, item.CreditsBefore+item.Amount)
		}
	})
}

func TestModerateArtist_ReferralReward(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	referrerID := createTestArtist(t, storage, "referrer", models.ArtistStatusApproved, 0)

	referredID, err := storage.RegisterArtist(ctx, models.Artist{
		Username:       "invited",
		Email:          "invited@example.com",
		Phone:          "9876543211",
		PasswordHash:   "hash",
		Role:           "artist",
		ReferralCode:   "WMinvited",
		ReferredByCode: "WMreferrer",
	})
	require.NoError(t, err)

	t.Run("first approval rewards referrer", func(t *testing.T) {
		artist, rewarded, err := storage.ModerateArtist(ctx, referredID, models.ArtistStatusApproved, "ok")
		require.NoError(t, err)
		assert.True(t, rewarded)
		assert.Equal(t, models.ArtistStatusApproved, artist.Status)

		balance, err := storage.GetBalance(ctx, referrerID)
		require.NoError(t, err)
		assert.Equal(t, 3, balance)
	})

	t.Run("repeated approval rejected", func(t *testing.T) {
		_, _, err := storage.ModerateArtist(ctx, referredID, models.ArtistStatusApproved, "ok")
		assert.ErrorIs(t, err, ErrAlreadyApproved)
	})

	t.Run("re-approval after rejection does not reward twice", func(t *testing.T) {
		_, _, err := storage.ModerateArtist(ctx, referredID, models.ArtistStatusRejected, "oops")
		require.NoError(t, err)

		_, rewarded, err := storage.ModerateArtist(ctx, referredID, models.ArtistStatusApproved, "ok again")
		require.NoError(t, err)
		assert.False(t, rewarded)

		balance, err := storage.GetBalance(ctx, referrerID)
		require.NoError(t, err)
		assert.Equal(t, 3, balance)

		var refTxCount int
		require.NoError(t, storage.DB.QueryRow(
			`SELECT COUNT(*) FROM credit_transactions
			 WHERE artist_id = $1 AND transaction_type = $2`,
			referrerID, models.TxReferral).Scan(&refTxCount))
		assert.Equal(t, 1, refTxCount)
	})
}

func TestAssignLeadAutomatically_RoundRobin(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestArtist(t, storage, "rr1", models.ArtistStatusApproved, 5)
	second := createTestArtist(t, storage, "rr2", models.ArtistStatusApproved, 5)
	third := createTestArtist(t, storage, "rr3", models.ArtistStatusApproved, 5)

	t.Run("no active strategy skips assignment", func(t *testing.T) {
		leadID := createTestLead(t, storage, 3)
		assignee, strategy, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, 0, assignee)
		assert.Equal(t, models.Strategy(""), strategy)
	})

	require.NoError(t, storage.SetRuleActive(ctx, models.StrategyRoundRobin, true))

	t.Run("assignments cycle through approved artists", func(t *testing.T) {
		want := []int{first, second, third, first}
		for i, expected := range want {
			leadID := createTestLead(t, storage, 3)
			assignee, strategy, err := storage.AssignLeadAutomatically(ctx, leadID)
			require.NoError(t, err)
			assert.Equal(t, expected, assignee, "assignment %d", i)
			assert.Equal(t, models.StrategyRoundRobin, strategy)

			lead, err := storage.GetLead(ctx, leadID)
			require.NoError(t, err)
			require.NotNil(t, lead.AssignedTo)
			assert.Equal(t, expected, *lead.AssignedTo)
			assert.Equal(t, 1, lead.TotalClaims)
		}

		balance, err := storage.GetBalance(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, 3, balance, "two assignments debit two credits")
	})

	t.Run("pointer advances past ineligible candidate", func(t *testing.T) {
		// Указатель сейчас на first; у second забираем все кредиты.
		_, err := storage.Debit(ctx, second, 4, models.TxConsumption, "drain", "TEST")
		require.NoError(t, err)

		leadID := createTestLead(t, storage, 3)
		assignee, _, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, 0, assignee, "ineligible candidate leaves lead in the pool")

		// Следующее назначение продолжает круг с third, а не повторяет second.
		leadID = createTestLead(t, storage, 3)
		assignee, _, err = storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, third, assignee)
	})

	t.Run("default artist picks up ineligible turn", func(t *testing.T) {
		// Указатель на third, следующий по кругу — first; лишаем его
		// кредитов и ставим third запасным.
		require.NoError(t, storage.SetDefaultArtist(ctx, third))

		_, err := storage.DB.Exec(
			`UPDATE artists SET available_leads = 0 WHERE id = $1`, first)
		require.NoError(t, err)

		leadID := createTestLead(t, storage, 3)
		assignee, _, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, third, assignee)
	})
}

func TestAssignLeadAutomatically_CapacityBased(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	low := createTestArtist(t, storage, "cap1", models.ArtistStatusApproved, 3)
	richA := createTestArtist(t, storage, "cap2", models.ArtistStatusApproved, 5)
	richB := createTestArtist(t, storage, "cap3", models.ArtistStatusApproved, 5)
	// Неодобренный артист с самым большим балансом в выборку не попадает.
	createTestArtist(t, storage, "cap4", models.ArtistStatusPending, 10)

	require.NoError(t, storage.SetRuleActive(ctx, models.StrategyCapacityBased, true))

	t.Run("highest balance wins, ties break by lower id", func(t *testing.T) {
		// richA и richB по 5 кредитов, richA создан раньше.
		leadID := createTestLead(t, storage, 3)
		assignee, strategy, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, richA, assignee)
		assert.Equal(t, models.StrategyCapacityBased, strategy)

		// После списания у richA осталось 4, лидирует richB.
		leadID = createTestLead(t, storage, 3)
		assignee, _, err = storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, richB, assignee)

		// Снова ничья 4:4, побеждает меньший ID.
		leadID = createTestLead(t, storage, 3)
		assignee, _, err = storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, richA, assignee)

		balance, err := storage.GetBalance(ctx, richA)
		require.NoError(t, err)
		assert.Equal(t, 3, balance, "two assignments debit two credits")

		untouched, err := storage.GetBalance(ctx, low)
		require.NoError(t, err)
		assert.Equal(t, 3, untouched, "lower balance is never selected")
	})

	t.Run("assignment writes claim row and lead fields", func(t *testing.T) {
		leadID := createTestLead(t, storage, 3)
		assignee, _, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		require.NotZero(t, assignee)

		lead, err := storage.GetLead(ctx, leadID)
		require.NoError(t, err)
		require.NotNil(t, lead.AssignedTo)
		assert.Equal(t, assignee, *lead.AssignedTo)
		assert.Equal(t, models.LeadStatusClaimed, lead.Status)
		assert.Equal(t, 1, lead.TotalClaims)
	})

	t.Run("no eligible artist leaves lead in the pool", func(t *testing.T) {
		_, err := storage.DB.Exec(`UPDATE artists SET available_leads = 0`)
		require.NoError(t, err)

		leadID := createTestLead(t, storage, 3)
		assignee, strategy, err := storage.AssignLeadAutomatically(ctx, leadID)
		require.NoError(t, err)
		assert.Equal(t, 0, assignee)
		assert.Equal(t, models.StrategyCapacityBased, strategy)

		lead, err := storage.GetLead(ctx, leadID)
		require.NoError(t, err)
		assert.Nil(t, lead.AssignedTo)
		assert.Equal(t, models.LeadStatusNew, lead.Status)
	})
}

func TestActivateSubscription(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	planID := createTestPlan(t, storage, "Gold", 4999, 50, 90)
	artistID := createTestArtist(t, storage, "buyer", models.ArtistStatusApproved, 0)

	subID, err := storage.CreatePendingSubscription(ctx, artistID, planID, "order_abc")
	require.NoError(t, err)

	t.Run("activation allocates plan credits", func(t *testing.T) {
		sub, err := storage.ActivateSubscription(ctx, "order_abc")
		require.NoError(t, err)
		assert.Equal(t, subID, sub.ID)
		assert.Equal(t, models.PaymentSuccess, sub.PaymentStatus)
		assert.True(t, sub.IsActive)
		assert.Equal(t, 50, sub.TotalLeadsAllocated)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 50, balance)

		artist, err := storage.GetArtist(ctx, artistID)
		require.NoError(t, err)
		assert.True(t, artist.PlanVerified)
		require.NotNil(t, artist.CurrentPlanID)
		assert.Equal(t, planID, *artist.CurrentPlanID)
	})

	t.Run("repeated activation does not double credits", func(t *testing.T) {
		_, err := storage.ActivateSubscription(ctx, "order_abc")
		assert.ErrorIs(t, err, ErrAlreadyActivated)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 50, balance)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := storage.ActivateSubscription(ctx, "order_missing")
		assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	})

	t.Run("active subscription is discoverable", func(t *testing.T) {
		sub, err := storage.FindActiveSubscription(ctx, artistID, planID)
		require.NoError(t, err)
		assert.Equal(t, "order_abc", sub.OrderID)

		_, err = storage.FindActiveSubscription(ctx, artistID, planID+1)
		assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	})
}

func TestResolveFalseClaim(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	leadID := createTestLead(t, storage, 3)
	artistID := createTestArtist(t, storage, "claimer", models.ArtistStatusApproved, 2)
	stranger := createTestArtist(t, storage, "stranger", models.ArtistStatusApproved, 2)

	_, err := storage.ClaimLead(ctx, leadID, artistID)
	require.NoError(t, err)

	t.Run("complaint requires own claim", func(t *testing.T) {
		_, err := storage.CreateFalseClaim(ctx, leadID, stranger, "fake number")
		assert.ErrorIs(t, err, ErrNotClaimed)
	})

	claim, err := storage.CreateFalseClaim(ctx, leadID, artistID, "fake number")
	require.NoError(t, err)
	assert.Equal(t, models.FalseClaimPending, claim.Status)

	t.Run("approval refunds one credit", func(t *testing.T) {
		resolved, err := storage.ResolveFalseClaim(ctx, claim.ID, models.FalseClaimApproved, "verified", "admin")
		require.NoError(t, err)
		assert.Equal(t, models.FalseClaimApproved, resolved.Status)
		require.NotNil(t, resolved.ResolvedAt)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance) // claim списал, возврат вернул
	})

	t.Run("repeated resolution rejected", func(t *testing.T) {
		_, err := storage.ResolveFalseClaim(ctx, claim.ID, models.FalseClaimApproved, "again", "admin")
		assert.ErrorIs(t, err, ErrAlreadyResolved)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 2, balance)
	})

	t.Run("unknown complaint", func(t *testing.T) {
		_, err := storage.ResolveFalseClaim(ctx, 9999, models.FalseClaimApproved, "", "admin")
		assert.ErrorIs(t, err, ErrFalseClaimNotFound)
	})
}

func TestExpireArtistPlan(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	planID := createTestPlan(t, storage, "Silver", 1999, 20, 30)
	artistID := createTestArtist(t, storage, "expiring", models.ArtistStatusApproved, 0)

	_, err := storage.CreatePendingSubscription(ctx, artistID, planID, "order_exp")
	require.NoError(t, err)
	_, err = storage.ActivateSubscription(ctx, "order_exp")
	require.NoError(t, err)

	candidates, err := storage.ListExpiryCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	cand := candidates[0]
	assert.Equal(t, artistID, cand.ArtistID)
	assert.Equal(t, 20, cand.AvailableLeads)

	t.Run("expiry forfeits remaining credits", func(t *testing.T) {
		forfeited, err := storage.ExpireArtistPlan(ctx, cand, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 20, forfeited)

		balance, err := storage.GetBalance(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 0, balance)

		sum, err := storage.SumTransactions(ctx, artistID)
		require.NoError(t, err)
		assert.Equal(t, 0, sum, "forfeit must flow through the journal")

		artist, err := storage.GetArtist(ctx, artistID)
		require.NoError(t, err)
		assert.False(t, artist.PlanVerified)
		assert.Nil(t, artist.CurrentPlanID)
		assert.Nil(t, artist.PlanPurchaseDate)

		var logCount int
		require.NoError(t, storage.DB.QueryRow(
			`SELECT COUNT(*) FROM expired_plan_logs WHERE artist_id = $1`,
			artistID).Scan(&logCount))
		assert.Equal(t, 1, logCount)

		var activeSubs int
		require.NoError(t, storage.DB.QueryRow(
			`SELECT COUNT(*) FROM subscriptions WHERE artist_id = $1 AND is_active`,
			artistID).Scan(&activeSubs))
		assert.Equal(t, 0, activeSubs)
	})

	t.Run("plan change between listing and expiry is a no-op", func(t *testing.T) {
		forfeited, err := storage.ExpireArtistPlan(ctx, cand, time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, forfeited)
	})

	t.Run("expired artist leaves the candidate list", func(t *testing.T) {
		candidates, err := storage.ListExpiryCandidates(ctx)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}

func TestSetMaxClaims(t *testing.T) {
	storage, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	leadID := createTestLead(t, storage, 3)
	first := createTestArtist(t, storage, "mc1", models.ArtistStatusApproved, 2)
	second := createTestArtist(t, storage, "mc2", models.ArtistStatusApproved, 2)

	_, err := storage.ClaimLead(ctx, leadID, first)
	require.NoError(t, err)
	_, err = storage.ClaimLead(ctx, leadID, second)
	require.NoError(t, err)

	t.Run("cannot set below claimed count", func(t *testing.T) {
		_, err := storage.SetMaxClaims(ctx, leadID, 1)
		assert.ErrorIs(t, err, ErrMaxClaimsTooLow)
	})

	t.Run("raising the limit opens slots", func(t *testing.T) {
		stats, err := storage.SetMaxClaims(ctx, leadID, 5)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.MaxClaims)
		assert.Equal(t, 2, stats.ClaimedCount)
		assert.Equal(t, 3, stats.AvailableSlots)
	})

	t.Run("bulk update reports problematic leads", func(t *testing.T) {
		otherID := createTestLead(t, storage, 3)

		updated, problematic, err := storage.BulkSetMaxClaims(ctx, 1)
		assert.ErrorIs(t, err, ErrMaxClaimsTooLow)
		assert.Equal(t, 0, updated)
		require.Len(t, problematic, 1)
		assert.Equal(t, leadID, problematic[0].LeadID)
		assert.Equal(t, 2, problematic[0].ClaimedCount)

		updated, problematic, err = storage.BulkSetMaxClaims(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 2, updated)
		assert.Empty(t, problematic)

		stats, err := storage.ClaimStats(ctx, otherID)
		require.NoError(t, err)
		assert.Equal(t, 4, stats.MaxClaims)
	})

	t.Run("bulk update serializes with concurrent claims", func(t *testing.T) {
		leadID := createTestLead(t, storage, 3)
		claimers := make([]int, 4)
		for i := range claimers {
			claimers[i] = createTestArtist(t, storage, fmt.Sprintf("mcrace%d", i), models.ArtistStatusApproved, 2)
		}

		var wg sync.WaitGroup
		for _, artistID := range claimers {
			wg.Add(1)
			go func(artistID int) {
				defer wg.Done()
				_, _ = storage.ClaimLead(ctx, leadID, artistID)
			}(artistID)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = storage.BulkSetMaxClaims(ctx, 2)
		}()
		wg.Wait()

		// При любом порядке коммитов число claim не превышает лимит.
		lead, err := storage.GetLead(ctx, leadID)
		require.NoError(t, err)
		assert.LessOrEqual(t, lead.TotalClaims, lead.MaxClaims)

		var claims int
		require.NoError(t, storage.DB.QueryRow(
			`SELECT count(*) FROM lead_claims WHERE lead_id = $1`, leadID).Scan(&claims))
		assert.Equal(t, lead.TotalClaims, claims)
	})
}
