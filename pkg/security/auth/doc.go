/*
Package auth verifies bearer tokens issued by the account service.

Tokens are HS256-signed JWTs. The subject claim is the account ID used for
quota accounting; issuer and audience are checked when configured.

# Basic Usage

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Secret:   os.Getenv("LISTINGFORGE_AUTH_SECRET"),
		Issuer:   "listingforge",
		Audience: "listingforge-api",
		Leeway:   30 * time.Second,
	})
	if err != nil {
		return err
	}

	mux.Handle("/generate", auth.NewBearerMiddleware(verifier, nil).Handle(generateHandler))

# Extracting the Account

Inside a protected handler:

	accountID := auth.AccountID(r.Context())

# Failure Responses

Missing credentials and invalid or expired tokens are answered with
401 and a JSON body {"error": "..."} in Spanish. Pass an error writer to
NewBearerMiddleware to render failures differently.
*/
package auth
