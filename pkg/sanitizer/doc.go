// Package sanitizer turns the raw text returned by the generation provider
// into a complete Content document.
//
// Models are asked for bare JSON but frequently wrap it in markdown fences,
// surround it with prose, or stop mid-document. Extract never fails: when
// no document can be recovered it returns placeholder content so a request
// that already consumed quota still yields something the user can read.
package sanitizer
