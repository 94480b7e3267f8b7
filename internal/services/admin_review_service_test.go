package services

import (
	"context"
	"testing"

	"servimarket_backend/internal/models"
	"servimarket_backend/internal/services/dto"
	"servimarket_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewFixture struct {
	userRepo *fakeUserRepo
	docRepo  *fakeDocumentRepo
	outbox   *fakeOutboxRepo
	svc      AdminReviewService
}

func newReviewFixture(users ...*models.User) *reviewFixture {
	userRepo := newFakeUserRepo(users...)
	docRepo := newFakeDocumentRepo()
	outbox := &fakeOutboxRepo{}
	return &reviewFixture{
		userRepo: userRepo,
		docRepo:  docRepo,
		outbox:   outbox,
		svc:      NewAdminReviewService(userRepo, docRepo, outbox),
	}
}

func reviewUser(id string) *models.User {
	return &models.User{
		BaseModel:          models.BaseModel{ID: id},
		Name:               "Marta",
		Email:              id + "@example.com",
		Phone:              "+5215511112222",
		Role:               models.UserRoleProvider,
		VerificationStatus: models.VerificationStatusInReview,
		VerificationStep:   models.StepFace,
	}
}

func (f *reviewFixture) seedDocs(userID string, statuses map[models.DocumentType]models.DocumentStatus) map[models.DocumentType]string {
	ids := map[models.DocumentType]string{}
	for tp, st := range statuses {
		d := &models.Document{UserID: userID, Type: tp, Status: st}
		f.docRepo.add(d)
		ids[tp] = d.ID
	}
	return ids
}

func allPending() map[models.DocumentType]models.DocumentStatus {
	return map[models.DocumentType]models.DocumentStatus{
		models.DocumentTypeIDFront: models.DocumentStatusPending,
		models.DocumentTypeIDBack:  models.DocumentStatusPending,
		models.DocumentTypeSelfie:  models.DocumentStatusPending,
	}
}

func allApproved() map[models.DocumentType]models.DocumentStatus {
	return map[models.DocumentType]models.DocumentStatus{
		models.DocumentTypeIDFront: models.DocumentStatusApproved,
		models.DocumentTypeIDBack:  models.DocumentStatusApproved,
		models.DocumentTypeSelfie:  models.DocumentStatusApproved,
	}
}

func TestApproveDocument(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	ids := f.seedDocs("user-1", allPending())
	db := testDB(t)

	resp, err := f.svc.ApproveDocument(context.Background(), db, "admin-1", ids[models.DocumentTypeIDFront])
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusApproved, resp.Status)
	assert.Equal(t, "admin-1", resp.ReviewedBy)
	require.NotNil(t, resp.ReviewedAt)
}

func TestDocumentDecisionIsSingleShot(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	ids := f.seedDocs("user-1", allPending())
	db := testDB(t)
	ctx := context.Background()
	docID := ids[models.DocumentTypeIDFront]

	_, err := f.svc.ApproveDocument(ctx, db, "admin-1", docID)
	require.NoError(t, err)

	// A second decision, approve or reject, is a conflict.
	_, err = f.svc.ApproveDocument(ctx, db, "admin-2", docID)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 409, appErr.HTTPCode)

	_, err = f.svc.RejectDocument(ctx, db, "admin-2", docID, "borrosa")
	require.Error(t, err)

	// The stored decision is the first one.
	doc, err := f.docRepo.FindByID(db, docID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusApproved, doc.Status)
	assert.Equal(t, "admin-1", doc.ReviewedBy)
}

func TestRejectRequiredDocumentResetsAccount(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	ids := f.seedDocs("user-1", allPending())
	db := testDB(t)

	resp, err := f.svc.RejectDocument(context.Background(), db, "admin-1", ids[models.DocumentTypeIDBack], "foto borrosa")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusRejected, resp.Status)
	assert.Equal(t, "foto borrosa", resp.RejectionReason)

	// The whole account regresses to the documents step.
	user := f.userRepo.get("user-1")
	assert.Equal(t, models.StepDocuments, user.VerificationStep)
	assert.Equal(t, models.VerificationStatusRejected, user.VerificationStatus)

	// And the rejection notification is queued.
	pending, err := f.outbox.FindUnprocessed(db, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.TemplateDocumentRejected, pending[0].Template)
}

func TestRejectWithoutReasonFails(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	ids := f.seedDocs("user-1", allPending())
	db := testDB(t)

	_, err := f.svc.RejectDocument(context.Background(), db, "admin-1", ids[models.DocumentTypeSelfie], "")
	require.Error(t, err)

	doc, findErr := f.docRepo.FindByID(db, ids[models.DocumentTypeSelfie])
	require.NoError(t, findErr)
	assert.Equal(t, models.DocumentStatusPending, doc.Status)
}

func TestRejectOptionalDocumentLeavesAccountAlone(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	d := &models.Document{UserID: "user-1", Type: models.DocumentTypeCertification, Status: models.DocumentStatusPending}
	f.docRepo.add(d)
	db := testDB(t)

	_, err := f.svc.RejectDocument(context.Background(), db, "admin-1", d.ID, "ilegible")
	require.NoError(t, err)

	user := f.userRepo.get("user-1")
	assert.Equal(t, models.StepFace, user.VerificationStep)
	assert.Equal(t, models.VerificationStatusInReview, user.VerificationStatus)

	count, _ := f.outbox.CountPending(db)
	assert.Zero(t, count)
}

func TestApproveAccountActivatesAndQueuesNotification(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	f.seedDocs("user-1", allApproved())
	db := testDB(t)

	resp, err := f.svc.ApproveAccount(context.Background(), db, "admin-1", "user-1")
	require.NoError(t, err)

	assert.True(t, resp.IsActive)
	assert.Equal(t, string(models.VerificationStatusVerified), resp.VerificationStatus)
	assert.Equal(t, 1, resp.NotificationsQueued)

	user := f.userRepo.get("user-1")
	assert.True(t, user.IsActive)
	assert.Equal(t, models.VerificationStatusVerified, user.VerificationStatus)
	assert.Equal(t, models.StepCompleted, user.VerificationStep)

	pending, err := f.outbox.FindUnprocessed(db, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.TemplateAccountApproved, pending[0].Template)
	assert.Equal(t, models.OutboxChannelEmail, pending[0].Channel)
}

func TestApproveAccountPreconditionFailsClosed(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	statuses := allApproved()
	statuses[models.DocumentTypeIDBack] = models.DocumentStatusPending
	f.seedDocs("user-1", statuses)
	db := testDB(t)

	_, err := f.svc.ApproveAccount(context.Background(), db, "admin-1", "user-1")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, 409, appErr.HTTPCode)

	// No write happened at all: still inactive, nothing queued.
	user := f.userRepo.get("user-1")
	assert.False(t, user.IsActive)
	assert.Equal(t, models.VerificationStatusInReview, user.VerificationStatus)
	count, _ := f.outbox.CountPending(db)
	assert.Zero(t, count)
}

func TestApproveAccountGatesOnLatestUpload(t *testing.T) {
	// All three approved, then a fresh id_back upload arrives pending. The
	// newest upload wins, so approval must fail.
	f := newReviewFixture(reviewUser("user-1"))
	f.seedDocs("user-1", allApproved())
	f.docRepo.add(&models.Document{UserID: "user-1", Type: models.DocumentTypeIDBack, Status: models.DocumentStatusPending})
	db := testDB(t)

	_, err := f.svc.ApproveAccount(context.Background(), db, "admin-1", "user-1")
	require.Error(t, err)
	assert.False(t, f.userRepo.get("user-1").IsActive)
}

func TestApproveAccountRepeatDoesNotDuplicateNotification(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	f.seedDocs("user-1", allApproved())
	db := testDB(t)
	ctx := context.Background()

	first, err := f.svc.ApproveAccount(ctx, db, "admin-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.NotificationsQueued)

	second, err := f.svc.ApproveAccount(ctx, db, "admin-2", "user-1")
	require.NoError(t, err)
	assert.True(t, second.IsActive)
	assert.Equal(t, 0, second.NotificationsQueued)

	count, _ := f.outbox.CountPending(db)
	assert.Equal(t, int64(1), count)
}

func TestApproveAccountWithoutEmailFallsBackToWhatsApp(t *testing.T) {
	user := reviewUser("user-1")
	user.Email = ""
	f := newReviewFixture(user)
	f.seedDocs("user-1", allApproved())
	db := testDB(t)

	_, err := f.svc.ApproveAccount(context.Background(), db, "admin-1", "user-1")
	require.NoError(t, err)

	pending, _ := f.outbox.FindUnprocessed(db, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, models.OutboxChannelWhatsApp, pending[0].Channel)
}

func TestListQueueGroupsByAccount(t *testing.T) {
	userA := reviewUser("user-a")
	userB := reviewUser("user-b")
	userB.Email = "user-b@example.com"
	f := newReviewFixture(userA, userB)
	f.seedDocs("user-a", allApproved())
	f.seedDocs("user-b", allPending())
	db := testDB(t)

	groups, err := f.svc.ListQueue(db, &dto.AdminDocumentsQuery{})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	byUser := map[string]dto.AccountDocumentsGroup{}
	for _, g := range groups {
		byUser[g.UserID] = g
	}

	assert.True(t, byUser["user-a"].CanApprove)
	assert.False(t, byUser["user-b"].CanApprove)
	assert.Len(t, byUser["user-a"].Documents, 3)
	assert.Equal(t, "Marta", byUser["user-a"].UserName)
}

func TestListQueueFiltersByStatus(t *testing.T) {
	f := newReviewFixture(reviewUser("user-1"))
	statuses := allPending()
	statuses[models.DocumentTypeIDFront] = models.DocumentStatusApproved
	f.seedDocs("user-1", statuses)
	db := testDB(t)

	groups, err := f.svc.ListQueue(db, &dto.AdminDocumentsQuery{Status: string(models.DocumentStatusPending)})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Documents, 2)
	for _, d := range groups[0].Documents {
		assert.Equal(t, models.DocumentStatusPending, d.Status)
	}
}

func TestRejectionThenReuploadThenApproval(t *testing.T) {
	// Full round trip: reject a required document, user re-uploads, both
	// reviewers approve, account approval now succeeds.
	user := reviewUser("user-1")
	f := newReviewFixture(user)
	ids := f.seedDocs("user-1", allApproved())
	db := testDB(t)
	ctx := context.Background()

	// The approved id_back turns out to be wrong; it was still pending in
	// the queue of a second reviewer. Simulate with a fresh pending upload
	// that supersedes it, then reject-free approval path.
	_ = ids
	reupload := &models.Document{UserID: "user-1", Type: models.DocumentTypeIDBack, Status: models.DocumentStatusPending}
	f.docRepo.add(reupload)

	_, err := f.svc.ApproveAccount(ctx, db, "admin-1", "user-1")
	require.Error(t, err)

	_, err = f.svc.ApproveDocument(ctx, db, "admin-1", reupload.ID)
	require.NoError(t, err)

	resp, err := f.svc.ApproveAccount(ctx, db, "admin-1", "user-1")
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
}

func TestRejectRequiredDocDeactivatesApprovedAccount(t *testing.T) {
	user := reviewUser("user-1")
	user.IsActive = true
	user.VerificationStatus = models.VerificationStatusVerified
	user.VerificationStep = models.StepCompleted
	f := newReviewFixture(user)
	db := testDB(t)

	// A fresh upload of a required type after approval, then rejected.
	fresh := &models.Document{UserID: "user-1", Type: models.DocumentTypeIDFront, Status: models.DocumentStatusPending}
	f.docRepo.add(fresh)

	_, err := f.svc.RejectDocument(context.Background(), db, "admin-1", fresh.ID, "documento vencido")
	require.NoError(t, err)

	// The account loses access along with the regression; is_active never
	// coexists with a rejected status.
	after := f.userRepo.get("user-1")
	assert.False(t, after.IsActive)
	assert.Equal(t, models.VerificationStatusRejected, after.VerificationStatus)
	assert.Equal(t, models.StepDocuments, after.VerificationStep)
}
