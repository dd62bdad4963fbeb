/*
Package fetcher retrieves one remote image and turns every result, good or
bad, into an Outcome.

# Permits

Fetch takes a Permits pool (normally a *semaphore.Weighted shared by the whole
batch) and holds one permit for the duration of the network call and decode.
The permit is released on every exit path. If the permit cannot be acquired
because the batch context expired, the URL resolves to a NetworkError with
cause "timeout" without touching the network.

# Failure mapping

	transport failure (DNS, refused, TLS, timeout)  -> NetworkError, Cause = error text
	HTTP status other than 200                      -> NetworkError, StatusCode set
	200 with an undecodable body                    -> DecodeError
	200 with a decodable body                       -> Success

Nothing is retried and nothing panics out of Fetch.

# TLS

Config.InsecureSkipVerify defaults to true so that images hosted behind
self-signed or misconfigured certificates can still be inspected. This
removes server authentication from the transport: anything on the network
path can impersonate the host. Turn it off (-insecure=false or
PIXELPEEK_TLS_INSECURE=false) when the URL list points at hosts you expect to
present valid certificates.

# Client lifetime

Each Fetcher owns one http.Client. Create it once per batch or server and call
Close when done so idle keep-alive connections are torn down.
*/
package fetcher
