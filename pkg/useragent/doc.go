// Package useragent turns User-Agent headers into a short device description
// for session listings.
//
//	d := useragent.Describe(r.UserAgent())
//	d.Label() // "Chrome on macOS"
//
// Detection is keyword based and deliberately coarse. It is for display only
// and never takes part in device identity, which uses the raw header.
package useragent
