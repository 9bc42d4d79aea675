/*
Package security groups the gateway's transport and identity concerns.

# Bearer Authentication

The auth subpackage verifies HS256 tokens minted by the identity provider
and puts the account ID on the request context:

	verifier, err := auth.NewVerifier(auth.VerifierConfig{Secret: secret})
	if err != nil {
		return err
	}
	bearer := auth.NewBearerMiddleware(verifier, nil)
	http.Handle("/generate", bearer.Handle(generateHandler))

# TLS

The tls subpackage terminates HTTPS on the listener and reloads renewed
certificates without a restart:

	reloader := tls.NewCertificateReloader(certFile, keyFile, 5*time.Minute)
	if err := reloader.Start(ctx); err != nil {
		return err
	}
	tlsConfig, err := tls.ServerConfig(cfg.Server.TLS, reloader)
*/
package security
