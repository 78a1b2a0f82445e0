package verification

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
	"github.com/mahavirb22/EventLens/pkg/testutil"
)

// earnToken runs the verification flow to eligibility and returns the token.
func (s *ServiceSuite) earnToken(subject string) string {
	s.expectJudgment(95)
	req := s.verifyReq(nearVenue())
	req.Subject = subject

	res, err := s.svc.Verify(context.Background(), req)
	s.Require().NoError(err)
	s.Require().True(res.Eligible)
	return res.Token
}

func (s *ServiceSuite) mintReq(subject, token string) MintRequest {
	return MintRequest{
		EventID:     s.ev.ID,
		Subject:     subject,
		DisplayName: "Ada",
		Token:       token,
	}
}

func (s *ServiceSuite) TestMintHappyPath() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), testSubject, s.ev.AssetID).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), testSubject, s.ev.AssetID).Return("TX-100", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)
	s.Equal("TX-100", res.TxID)
	s.Equal(s.ev.AssetID, res.AssetID)

	claimed, err := s.ledger.HasClaimed(s.ev.ID, testSubject)
	s.Require().NoError(err)
	s.True(claimed)

	ev, err := s.events.Get(s.ev.ID)
	s.Require().NoError(err)
	s.Equal(1, ev.Minted)

	rec, found, err := s.ledger.Get(s.ev.ID, testSubject)
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal("TX-100", rec.TxID)
	s.Equal("Ada", rec.DisplayName)
}

func (s *ServiceSuite) TestMintInvalidTokenRejected() {
	for _, token := range []string{"", "garbage", "1:2:3:4:5"} {
		_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized), "token %q", token)
	}
}

func (s *ServiceSuite) TestMintTokenBoundToSubject() {
	token := s.earnToken(testSubject)

	_, err := s.svc.Mint(context.Background(), s.mintReq("SOMEONE-ELSE", token))
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func (s *ServiceSuite) TestMintTokenBoundToEvent() {
	token := s.earnToken(testSubject)

	other, err := s.events.Create(eventParamsNamed("Other Summit"))
	s.Require().NoError(err)

	req := s.mintReq(testSubject, token)
	req.EventID = other.ID
	_, err = s.svc.Mint(context.Background(), req)
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func (s *ServiceSuite) TestMintTwiceSecondRejected() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-1", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)

	// The token is still cryptographically valid; the ledger is what stops it.
	_, err = s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
}

func (s *ServiceSuite) TestMintNotOptedIn() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), testSubject, s.ev.AssetID).Return(false, nil)

	_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	// The reservation is handed back, so a later attempt can proceed.
	s.backend.EXPECT().IsOptedIn(gomock.Any(), testSubject, s.ev.AssetID).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), testSubject, s.ev.AssetID).Return("TX-2", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	_, err = s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.NoError(err)
}

func (s *ServiceSuite) TestMintIssuanceFailureAllowsRetry() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("ledger unavailable"))

	_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.True(dErrors.HasCode(err, dErrors.CodeIssuanceFailed))

	claimed, err := s.ledger.HasClaimed(s.ev.ID, testSubject)
	s.Require().NoError(err)
	s.False(claimed)

	ev, err := s.events.Get(s.ev.ID)
	s.Require().NoError(err)
	s.Equal(0, ev.Minted)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-3", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)
	s.Equal("TX-3", res.TxID)

	ev, err = s.events.Get(s.ev.ID)
	s.Require().NoError(err)
	s.Equal(1, ev.Minted)
}

func (s *ServiceSuite) TestMintAuditProofFailureIsNonFatal() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-4", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(errors.New("note write failed"))

	res, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)
	s.Equal("TX-4", res.TxID)
}

func (s *ServiceSuite) TestMintSupplyExhausted() {
	small, err := s.events.Create(eventParamsWithCapacity("Tiny Meetup", 1))
	s.Require().NoError(err)

	mintFor := func(subject string) error {
		token := s.svc.tokens.Issue(small.ID, subject, 95, "")
		req := s.mintReq(subject, token)
		req.EventID = small.ID
		_, err := s.svc.Mint(context.Background(), req)
		return err
	}

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-5", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)
	s.Require().NoError(mintFor("FIRST"))

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	err = mintFor("SECOND")
	s.True(dErrors.HasCode(err, dErrors.CodeSupplyExhausted))
}

func (s *ServiceSuite) TestConcurrentMintSingleWinner() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).Times(1)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-6", nil).Times(1)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	res := testutil.RunConcurrent(20, func(int) error {
		_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
		return err
	})

	s.Equal(int32(1), res.Successes)
	s.Equal(int32(19), res.NotAuthorized)

	ev, err := s.events.Get(s.ev.ID)
	s.Require().NoError(err)
	s.Equal(1, ev.Minted)
}

func (s *ServiceSuite) TestStatsAfterMint() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-8", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)

	stats, err := s.svc.Stats()
	s.Require().NoError(err)
	s.Equal(1, stats.TotalEvents)
	s.Equal(1, stats.TotalMinted)
	s.Equal(100, stats.TotalAvailable)
	s.Equal(1, stats.UniqueAttendees)
}

func (s *ServiceSuite) TestProfileListsMintedBadges() {
	token := s.earnToken(testSubject)

	s.backend.EXPECT().IsOptedIn(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	s.backend.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any()).Return("TX-7", nil)
	s.backend.EXPECT().RecordAuditProof(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.svc.Mint(context.Background(), s.mintReq(testSubject, token))
	s.Require().NoError(err)

	badges, err := s.svc.Profile(testSubject)
	s.Require().NoError(err)
	s.Require().Len(badges, 1)
	s.Equal(s.ev.Name, badges[0].EventName)
	s.Equal("TX-7", badges[0].TxID)
}
