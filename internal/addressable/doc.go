// Package addressable is a typed client for the Addressable REST API.
//
// Every operation builds its request through RequestBuilder, which roots paths
// at {scheme}://{host}/api/v1, sets the JSON content type and attaches the
// caller's basic token from a TokenStore. Calls are independent: there are no
// retries and nothing is cached.
//
// Failures are *Error values whose Kind is ErrNetwork or ErrParsing:
//
//	m, err := client.RadiusMailing(ctx, 42)
//	switch {
//	case errors.Is(err, addressable.ErrPaymentRequired):
//		// 402, offer to buy tokens
//	case errors.Is(err, addressable.ErrParsing):
//		// unexpected body
//	case err != nil:
//		// everything else
//	}
//
// Radius mailings are edited one sub-resource at a time with
// UpdateRadiusMailing and a Component value such as CoverUpdate.
package addressable
