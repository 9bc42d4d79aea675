// Package handlers provides the HTTP handlers of the metered endpoints.
//
// # Handlers
//
//   - GenerateHandler: POST /generate. Reserves one unit of the caller's
//     plan quota, calls the generation provider, sanitizes the reply and
//     records the listing.
//   - UsageHandler: GET /usage. Reports the plan and current period usage.
//   - ListingsHandler: GET /listings. Returns the caller's recent listings.
//
// All three expect the bearer middleware to have placed verified claims in
// the request context.
//
// # Generation Flow
//
//  1. Parse and validate the body (400 on missing address or price)
//  2. Reserve quota (429 with upgrade details when exhausted)
//  3. Call the provider; on failure release the unit and answer 500
//  4. Sanitize the reply into the four content fields
//  5. Commit the reservation and store the listing
//  6. Answer 200 with content and usage
//
// A failed listing write after step 5 keeps the charge: the caller gets
// 500 together with the generated content so the work is not lost.
//
// # Error Format
//
// Errors are JSON objects with Spanish messages:
//
//	{"error": "Dirección y precio son requeridos.", "code": "missing_field"}
//
// The 429 answer adds the upgrade fields:
//
//	{"error": "...", "upgrade": true, "plan": "free", "used": 5, "limit": 5}
package handlers
