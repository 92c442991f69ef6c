package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"careerpath/internal/entitlement"
	"careerpath/internal/pricing"
)

type checkoutResponse struct {
	URL string `json:"url"`
}

// Checkout sends form posts straight to the payment page and answers API
// clients with the URL.
func (a *App) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	url, err := a.Pricing.Checkout(r.Context(), s.API())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if isFormPost(r) {
		http.Redirect(w, r, url, http.StatusSeeOther)
		return
	}
	a.json(w, http.StatusOK, checkoutResponse{URL: url})
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	*pricing.Redemption
	Entitlement entitlement.Entitlement `json:"entitlement"`
	Premium     bool                    `json:"premium"`
}

func (a *App) RedeemVoucher(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	var req redeemRequest
	if isFormPost(r) {
		req.Code = r.PostFormValue("code")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	res, err := a.Pricing.Redeem(r.Context(), s.API(), s, s.UserID(), req.Code)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	ent, premium := a.entitled(r.Context(), s, res.User)
	a.json(w, http.StatusOK, redeemResponse{Redemption: res, Entitlement: ent, Premium: premium})
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
