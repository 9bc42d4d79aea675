// ListingForge is the metered generation gateway for real-estate listing
// content.
//
// It sits between the web application and the Groq completion API and
// provides:
//   - Bearer token authentication of account holders
//   - Plan quotas with a monthly billing period
//   - Per-account rate limiting
//   - Listing history with retention pruning
//
// Usage:
//
//	# Start the gateway with configuration from the environment only
//	listingforge run
//
//	# Start with a configuration file
//	listingforge run --config /etc/listingforge/config.yaml
//
//	# Check a configuration file
//	listingforge validate --config config.yaml
//
//	# Show the effective plan table
//	listingforge plans --output json
//
//	# Mint a token for local testing
//	listingforge token --account acct_123 --ttl 1h
package main

func main() {
	Execute()
}
