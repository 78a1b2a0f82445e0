package verification

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"github.com/mahavirb22/EventLens/internal/claims"
	"github.com/mahavirb22/EventLens/internal/geofence"
	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// The test payload carries no capture metadata, so every passing score below
// reflects the no-provenance deduction on top of the geofence adjustment.
var testImage = []byte("synthetic-jpeg-payload")

func (s *ServiceSuite) verifyReq(coords *geofence.Coordinates) VerifyRequest {
	return VerifyRequest{
		EventID:   s.ev.ID,
		Subject:   testSubject,
		Image:     testImage,
		Coords:    coords,
		ClientKey: "10.0.0.1",
	}
}

func (s *ServiceSuite) TestEligibleClaimIssuesToken() {
	s.expectJudgment(82)

	res, err := s.svc.Verify(context.Background(), s.verifyReq(nearVenue()))
	s.Require().NoError(err)

	// 82 baseline, +5 geofence pass, -5 missing capture metadata.
	s.True(res.Eligible)
	s.NotEmpty(res.Token)
	s.Equal(82, res.Composite.Confidence)
	s.Len(res.Composite.Trail, 3)
	s.Equal(geofence.StatusPass, res.Composite.Signals.Geofence.Status)
}

func (s *ServiceSuite) TestFarFromVenueIneligible() {
	s.expectJudgment(90)

	res, err := s.svc.Verify(context.Background(), s.verifyReq(sanJose()))
	s.Require().NoError(err)

	// 90 baseline, -15 geofence fail, -5 missing capture metadata.
	s.False(res.Eligible)
	s.Empty(res.Token)
	s.Equal(70, res.Composite.Confidence)
	s.Equal(geofence.StatusFail, res.Composite.Signals.Geofence.Status)
}

func (s *ServiceSuite) TestMissingCoordinatesIsNeutral() {
	s.expectJudgment(90)

	res, err := s.svc.Verify(context.Background(), s.verifyReq(nil))
	s.Require().NoError(err)

	// 90 baseline, geofence unavailable, -5 missing capture metadata.
	s.True(res.Eligible)
	s.Equal(85, res.Composite.Confidence)
	s.Equal(geofence.StatusUnavailable, res.Composite.Signals.Geofence.Status)
}

func (s *ServiceSuite) TestVisionFailureFailsClosed() {
	s.provider.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("upstream timeout"))

	res, err := s.svc.Verify(context.Background(), s.verifyReq(nearVenue()))
	s.Require().NoError(err)

	s.False(res.Eligible)
	s.Empty(res.Token)
	s.Contains(res.Composite.Signals.Vision.Reason, "vision verification failed")
}

func (s *ServiceSuite) TestUnknownEventRejected() {
	req := s.verifyReq(nearVenue())
	req.EventID = "nope"

	_, err := s.svc.Verify(context.Background(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestAlreadyClaimedRejectedEarly() {
	s.Require().NoError(s.ledger.Commit(claims.Record{EventID: s.ev.ID, Subject: testSubject}))

	_, err := s.svc.Verify(context.Background(), s.verifyReq(nearVenue()))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestOversizePayloadRejected() {
	WithMaxUploadBytes(4)(s.svc)

	_, err := s.svc.Verify(context.Background(), s.verifyReq(nearVenue()))
	s.True(dErrors.HasCode(err, dErrors.CodePayloadTooBig))
}

func (s *ServiceSuite) TestEmptyPayloadRejected() {
	req := s.verifyReq(nearVenue())
	req.Image = nil

	_, err := s.svc.Verify(context.Background(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRateLimitExceeded() {
	s.svc.governor = newTightGovernor(2)
	s.provider.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(failedJudgment(), nil).
		AnyTimes()

	req := s.verifyReq(nearVenue())
	for i := 0; i < 2; i++ {
		_, err := s.svc.Verify(context.Background(), req)
		s.Require().NoError(err)
	}

	_, err := s.svc.Verify(context.Background(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
}

func (s *ServiceSuite) TestRateLimitKeyedPerClient() {
	s.svc.governor = newTightGovernor(1)
	s.provider.EXPECT().
		Evaluate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(failedJudgment(), nil).
		AnyTimes()

	first := s.verifyReq(nearVenue())
	_, err := s.svc.Verify(context.Background(), first)
	s.Require().NoError(err)

	other := s.verifyReq(nearVenue())
	other.ClientKey = "10.0.0.2"
	_, err = s.svc.Verify(context.Background(), other)
	s.NoError(err)
}

func (s *ServiceSuite) TestRejectedClaimLeavesAuditTrail() {
	s.expectJudgment(10)

	res, err := s.svc.Verify(context.Background(), s.verifyReq(nearVenue()))
	s.Require().NoError(err)
	s.False(res.Eligible)

	events, err := s.trail.ListBySubject(context.Background(), testSubject)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("claim_rejected", string(events[0].Action))
}
