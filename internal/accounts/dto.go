package accounts

import "time"

// CreateAccountRequest is the POST /accounts body. Tag order keeps the
// max-length check ahead of the format check, matching how the store
// would report a varchar overflow before a constraint violation.
type CreateAccountRequest struct {
	Email    string `json:"email" validate:"required,max=50,email,min=7"`
	Password string `json:"password"`
}

// AccountResponse is the public projection of an account. The
// credential hash and activation code have no fields here and can
// never serialize outward.
type AccountResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	IsActivated bool      `json:"is_activated"`
}

// AccountSummary is the list projection.
type AccountSummary struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ListAccountsResponse wraps the account collection.
type ListAccountsResponse struct {
	Data []AccountSummary `json:"data"`
}

func toResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Email:       a.Email,
		CreatedAt:   a.CreatedAt,
		IsActivated: a.IsActivated,
	}
}

func toSummaries(accounts []Account) []AccountSummary {
	out := make([]AccountSummary, len(accounts))
	for i, a := range accounts {
		out[i] = AccountSummary{ID: a.ID, Email: a.Email, CreatedAt: a.CreatedAt}
	}
	return out
}
