/*
Package tls terminates HTTPS on the gateway listener.

Certificates are read through a CertificateReloader, which polls the
certificate and key files and swaps in renewed pairs without a restart:

	reloader := tls.NewCertificateReloader(cfg.CertFile, cfg.KeyFile, cfg.ReloadInterval)
	if err := reloader.Start(ctx); err != nil {
		return err
	}

	tlsConfig, err := tls.ServerConfig(cfg, reloader)
	if err != nil {
		return err
	}

The reloader's Check method reports an expired or missing certificate and
is registered as a readiness check.
*/
package tls
