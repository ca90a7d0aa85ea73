package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/work-marketplace/backend/internal/apperrors"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

type testEnv struct {
	contracts    *fakeContractStore
	milestones   *fakeMilestoneStore
	transactions *fakeTransactionStore
	profiles     *fakeProfileStore
	reviews      *fakeReviewStore
	disputes     *fakeDisputeStore
	violations   *fakeViolationStore
	adminActions *fakeAdminActionStore
	audit        *fakeAuditStore
	publisher    *fakePublisher
	cfg          *config.Config

	contractSvc  *ContractService
	milestoneSvc *MilestoneService
	adminSvc     *AdminService

	client     uuid.UUID
	freelancer uuid.UUID
	admin      uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		contracts:    newFakeContractStore(),
		milestones:   newFakeMilestoneStore(),
		transactions: &fakeTransactionStore{},
		profiles:     newFakeProfileStore(),
		reviews:      &fakeReviewStore{},
		disputes:     newFakeDisputeStore(),
		violations:   &fakeViolationStore{},
		adminActions: &fakeAdminActionStore{},
		audit:        &fakeAuditStore{},
		publisher:    &fakePublisher{},
		cfg: &config.Config{
			PlatformFeePercent:    decimal.NewFromInt(10),
			TrustScorePenalty:     10,
			TrustScoreFloor:       0,
			TrustScoreInitial:     100,
			DefaultSuspensionDays: 14,
		},
		client:     uuid.New(),
		freelancer: uuid.New(),
		admin:      uuid.New(),
	}
	env.milestones.contracts = env.contracts
	log := zap.NewNop()
	env.contractSvc = NewContractService(env.contracts, env.milestones, env.transactions, env.profiles,
		env.reviews, env.disputes, env.audit, env.publisher, env.cfg, log)
	env.milestoneSvc = NewMilestoneService(env.contracts, env.milestones, env.transactions, env.profiles,
		env.audit, env.publisher, env.cfg, log)
	env.adminSvc = NewAdminService(env.contracts, env.profiles, env.violations, env.disputes,
		env.adminActions, env.audit, env.milestoneSvc, env.publisher, env.cfg, log)
	return env
}

func (env *testEnv) createContract(t *testing.T, contractType string, total string, milestones ...string) *models.Contract {
	t.Helper()
	input := CreateContractInput{
		FreelancerUserID: env.freelancer,
		Title:            "Landing page build",
		ContractType:     contractType,
		TotalAmount:      mustDecimal(t, total),
	}
	for i, amount := range milestones {
		input.Milestones = append(input.Milestones, MilestoneInput{
			Title:  "Milestone " + string(rune('A'+i)),
			Amount: mustDecimal(t, amount),
		})
	}
	contract, err := env.contractSvc.CreateContract(context.Background(), env.client, input)
	require.NoError(t, err)
	return contract
}

func (env *testEnv) activate(t *testing.T, id uuid.UUID) *models.Contract {
	t.Helper()
	_, err := env.contractSvc.Sign(context.Background(), id, env.client)
	require.NoError(t, err)
	contract, err := env.contractSvc.Sign(context.Background(), id, env.freelancer)
	require.NoError(t, err)
	require.Equal(t, models.ContractStatusActive, contract.Status)
	return contract
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestCreateContract_MilestoneSumMustMatchTotal(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.contractSvc.CreateContract(context.Background(), env.client, CreateContractInput{
		FreelancerUserID: env.freelancer,
		Title:            "Mismatch",
		ContractType:     models.ContractTypeMilestone,
		TotalAmount:      mustDecimal(t, "1000.00"),
		Milestones: []MilestoneInput{
			{Title: "A", Amount: mustDecimal(t, "400.00")},
			{Title: "B", Amount: mustDecimal(t, "500.00")},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	contract := env.createContract(t, models.ContractTypeMilestone, "1000.00", "400.00", "600.00")
	assert.Equal(t, models.ContractStatusPending, contract.Status)
}

func TestCreateContract_RejectsSubCentAmounts(t *testing.T) {
	env := newTestEnv(t)

	// Amounts finer than a cent would round inside the money columns and
	// could break the milestone-sum invariant after the fact.
	_, err := env.contractSvc.CreateContract(context.Background(), env.client, CreateContractInput{
		FreelancerUserID: env.freelancer,
		Title:            "Sub-cent total",
		ContractType:     models.ContractTypeFixedPrice,
		TotalAmount:      mustDecimal(t, "100.005"),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = env.contractSvc.CreateContract(context.Background(), env.client, CreateContractInput{
		FreelancerUserID: env.freelancer,
		Title:            "Sub-cent milestones",
		ContractType:     models.ContractTypeMilestone,
		TotalAmount:      mustDecimal(t, "0.01"),
		Milestones: []MilestoneInput{
			{Title: "A", Amount: mustDecimal(t, "0.005")},
			{Title: "B", Amount: mustDecimal(t, "0.005")},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	// Trailing zeros beyond 2 places are still whole cents.
	contract, err := env.contractSvc.CreateContract(context.Background(), env.client, CreateContractInput{
		FreelancerUserID: env.freelancer,
		Title:            "Trailing zeros",
		ContractType:     models.ContractTypeFixedPrice,
		TotalAmount:      mustDecimal(t, "100.0000"),
	})
	require.NoError(t, err)
	assert.True(t, contract.TotalAmount.Equal(mustDecimal(t, "100.00")))
}

func TestSign_OnePartyDoesNotActivate(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "500.00")

	signed, err := env.contractSvc.Sign(context.Background(), contract.ID, env.client)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusPending, signed.Status)
	assert.NotNil(t, signed.ClientSignedAt)
	assert.Nil(t, signed.FreelancerSignedAt)

	// Signing again from the same party is a no-op, never an activation.
	signed, err = env.contractSvc.Sign(context.Background(), contract.ID, env.client)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusPending, signed.Status)
}

func TestSign_BothPartiesActivate(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "500.00")
	activated := env.activate(t, contract.ID)
	assert.True(t, activated.IsFullySigned())
}

func TestSign_StrangerCannotTellContractsApart(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "500.00")
	stranger := uuid.New()

	_, errExisting := env.contractSvc.Sign(context.Background(), contract.ID, stranger)
	require.Error(t, errExisting)
	_, errMissing := env.contractSvc.Sign(context.Background(), uuid.New(), stranger)
	require.Error(t, errMissing)

	// A caller outside the contract gets the same answer for a real id and
	// a random one, so ids cannot be enumerated.
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(errExisting))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(errMissing))
	assert.Equal(t, errMissing.Error(), errExisting.Error())

	// Same answer on the read side.
	_, err := env.contractSvc.GetContract(context.Background(), contract.ID, stranger, false)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	// No signature landed.
	got, err := env.contractSvc.GetContract(context.Background(), contract.ID, env.client, false)
	require.NoError(t, err)
	assert.Nil(t, got.ClientSignedAt)
	assert.Nil(t, got.FreelancerSignedAt)
}

func TestSign_LostActivationRaceStillSucceeds(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "500.00")

	_, err := env.contractSvc.Sign(context.Background(), contract.ID, env.client)
	require.NoError(t, err)

	// The counter-party's flip wins between this caller's re-read and
	// their own pending -> active update.
	env.contracts.beforeStatusUpdate = func() {
		ok, err := env.contracts.UpdateStatusIf(context.Background(), contract.ID, models.ContractStatusPending, models.ContractStatusActive)
		require.NoError(t, err)
		require.True(t, ok)
	}

	got, err := env.contractSvc.Sign(context.Background(), contract.ID, env.freelancer)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, got.Status)
	assert.True(t, got.IsFullySigned())
}

func TestApprove_SettlesOnceWithExactFeeSplit(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "1000.00")
	env.activate(t, contract.ID)

	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	result, err := env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{})
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCompleted, result.Status)
	assert.True(t, result.NetAmount.Equal(mustDecimal(t, "900.00")), "net = %s", result.NetAmount)

	// Ledger and rollups
	require.Len(t, env.transactions.txs, 1)
	tx := env.transactions.txs[0]
	assert.True(t, tx.GrossAmount.Equal(mustDecimal(t, "1000.00")))
	assert.True(t, tx.FeeAmount.Equal(mustDecimal(t, "100.00")))
	assert.True(t, tx.NetAmount.Equal(mustDecimal(t, "900.00")))
	assert.True(t, tx.FeeAmount.Add(tx.NetAmount).Equal(tx.GrossAmount))
	assert.True(t, env.profiles.earned[env.freelancer].Equal(mustDecimal(t, "900.00")))
	assert.True(t, env.profiles.spent[env.client].Equal(mustDecimal(t, "1000.00")))
	assert.Equal(t, 1, env.profiles.completedJobs[env.freelancer])

	// Second approval finds the contract already completed: no second
	// ledger row, no double rollup.
	_, err = env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	assert.Len(t, env.transactions.txs, 1)
	assert.Equal(t, 1, env.profiles.completedJobs[env.freelancer])
	assert.True(t, env.profiles.earned[env.freelancer].Equal(mustDecimal(t, "900.00")))
}

func TestApprove_WithRatingFoldsReview(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "200.00")
	env.activate(t, contract.ID)
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	rating := 5
	_, err := env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{Rating: &rating})
	require.NoError(t, err)

	require.Len(t, env.reviews.reviews, 1)
	assert.Equal(t, env.freelancer, env.reviews.reviews[0].RevieweeUserID)
	assert.Equal(t, []int{5}, env.profiles.ratings[env.freelancer])
}

func TestApprove_RejectsOutOfRangeRating(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "200.00")
	env.activate(t, contract.ID)
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	rating := 6
	_, err := env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{Rating: &rating})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestApprove_OnlyClient(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "200.00")
	env.activate(t, contract.ID)
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	_, err := env.contractSvc.Approve(context.Background(), contract.ID, env.freelancer, ApproveInput{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestReject_RequiresReasonAndRevertsToActive(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "300.00")
	env.activate(t, contract.ID)
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	err := env.contractSvc.Reject(context.Background(), contract.ID, env.client, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, env.contractSvc.Reject(context.Background(), contract.ID, env.client, "missing pages"))

	got, err := env.contractSvc.GetContract(context.Background(), contract.ID, env.client, false)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, got.Status)
	assert.Nil(t, got.SubmittedAt)

	// Re-submit and approve still works after the revision loop.
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))
	_, err = env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{})
	require.NoError(t, err)
}

func TestUpdateStatus_CancelRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "300.00")

	err := env.contractSvc.UpdateStatus(context.Background(), contract.ID, env.client, models.ContractStatusCancelled, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	reason := "scope changed"
	require.NoError(t, env.contractSvc.UpdateStatus(context.Background(), contract.ID, env.client, models.ContractStatusCancelled, &reason))

	got, err := env.contractSvc.GetContract(context.Background(), contract.ID, env.client, false)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCancelled, got.Status)

	// Terminal: nothing moves a cancelled contract.
	err = env.contractSvc.UpdateStatus(context.Background(), contract.ID, env.client, models.ContractStatusCompleted, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestEdit_LockedAfterFreelancerSigns(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "300.00")

	_, err := env.contractSvc.Sign(context.Background(), contract.ID, env.freelancer)
	require.NoError(t, err)

	newTitle := "Bigger scope"
	_, err = env.contractSvc.Edit(context.Background(), contract.ID, env.client, EditContractInput{Title: &newTitle})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
}

func TestEdit_RejectsSubCentTotal(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "300.00")

	newTotal := mustDecimal(t, "300.001")
	_, err := env.contractSvc.Edit(context.Background(), contract.ID, env.client, EditContractInput{TotalAmount: &newTotal})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestEdit_RechecksMilestoneSum(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeMilestone, "1000.00", "400.00", "600.00")

	// Changing the total without adjusting milestones is rejected.
	newTotal := mustDecimal(t, "1200.00")
	_, err := env.contractSvc.Edit(context.Background(), contract.ID, env.client, EditContractInput{TotalAmount: &newTotal})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	// Changing both together passes and replaces the pending milestones.
	_, err = env.contractSvc.Edit(context.Background(), contract.ID, env.client, EditContractInput{
		TotalAmount: &newTotal,
		Milestones: []MilestoneInput{
			{Title: "A", Amount: mustDecimal(t, "700.00")},
			{Title: "B", Amount: mustDecimal(t, "500.00")},
		},
	})
	require.NoError(t, err)

	milestones, err := env.contractSvc.ListMilestones(context.Background(), contract.ID, env.client, false)
	require.NoError(t, err)
	require.Len(t, milestones, 2)
	assert.True(t, models.MilestoneAmountsMatch(newTotal, milestones))
}

func TestOpenDispute(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "300.00")
	env.activate(t, contract.ID)

	_, err := env.contractSvc.OpenDispute(context.Background(), contract.ID, env.freelancer, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	dispute, err := env.contractSvc.OpenDispute(context.Background(), contract.ID, env.freelancer, "payment overdue")
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, env.freelancer, dispute.InitiatorID)
}

func TestNotificationFailureNeverBlocksSettlement(t *testing.T) {
	env := newTestEnv(t)
	contract := env.createContract(t, models.ContractTypeFixedPrice, "1000.00")
	env.activate(t, contract.ID)
	require.NoError(t, env.contractSvc.SubmitForCompletion(context.Background(), contract.ID, env.freelancer))

	env.publisher.fail = true
	result, err := env.contractSvc.Approve(context.Background(), contract.ID, env.client, ApproveInput{})
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusCompleted, result.Status)
	assert.Len(t, env.transactions.txs, 1)
}
