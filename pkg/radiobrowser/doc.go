// Package radiobrowser is a client for the radio-browser directory API.
//
// Endpoints are immutable values built from a fixed server root:
//
//	radiobrowser.TopVote(0, 20).String()
//	// http://91.132.145.114/json/stations/topvote?hidebroken=true&offset=0&limit=20
//
// A Client finalizes an endpoint into a Request, sends it through an
// injected Transport, rejects 400/403/404/405 and 5xx responses before
// decoding, and decodes the JSON body into the typed result:
//
//	client := radiobrowser.New(radiobrowser.WithLogger(log))
//	stations, err := client.SearchStations(ctx, "jazz", radiobrowser.Page{Limit: 10})
//	if errors.Is(err, radiobrowser.ErrNotFound) {
//		// ...
//	}
//
// Every error returned by a Client method is a *Error whose Kind is one of
// decode, encode, http_status, transport or unknown. Endpoint.URL panics on
// components that cannot form a URL, which only happens for a misconfigured
// host.
package radiobrowser
