package inbound

import (
	"github.com/uluru/fbtotp/internal/bridge/usecase"
	"github.com/uluru/fbtotp/internal/pkg/router"
)

// HTTPEndpoint exposes the bridge operations over JSON.
type HTTPEndpoint struct {
	uc uc
}

// Enroll starts TOTP enrollment (enrollUserInTOTP).
func (h *HTTPEndpoint) Enroll(r *router.Request) (any, error) {
	var req EnrollRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Enroll(r.Context(), usecase.EnrollInput{
		UserID:      req.UserID,
		AccountName: req.AccountName,
		Issuer:      req.Issuer,
	})
	if err != nil {
		return nil, err
	}

	return EnrollResponse{
		SecretKey:      resp.SecretKey,
		QRCodeURL:      resp.QRCodeURL,
		VerificationID: resp.VerificationID,
		QRCodeImage:    resp.QRCodeImage,
	}, nil
}

// Verify submits a code for the pending enrollment (verifyTOTPCode). A wrong
// code is a successful response with success=false.
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Code:           req.Code,
		VerificationID: req.VerificationID,
		UserID:         req.UserID,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{Success: resp.Success, Msg: resp.Message}, nil
}

// Disable removes the TOTP factor (disableTOTP).
func (h *HTTPEndpoint) Disable(r *router.Request) (any, error) {
	var req DisableRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Disable(r.Context(), usecase.DisableInput{UserID: req.UserID}); err != nil {
		return nil, err
	}

	return DisableResponse{}, nil
}

func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context(), usecase.StatusInput{UserID: r.GetQuery("userId")})
	if err != nil {
		return nil, err
	}

	out := StatusResponse{AccountID: resp.AccountID, TOTPEnabled: resp.TOTPEnabled}
	if resp.Factor != nil {
		out.Factor = &FactorResponse{
			ID:          resp.Factor.ID,
			Kind:        resp.Factor.Kind.String(),
			DisplayName: resp.Factor.DisplayName,
			EnrolledAt:  resp.Factor.EnrolledAt,
		}
	}

	return out, nil
}
