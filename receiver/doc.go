// Package receiver provides hook.Receiver implementations for common webhook
// sender authentication schemes: HMAC body signatures (GitHub, Meta, Shopify
// and similar) and bearer JWTs.
//
//	r := hook.New(
//		hook.WithReceiver("github", &receiver.HMAC{
//			Secret:      []byte(os.Getenv("GITHUB_WEBHOOK_SECRET")),
//			EventHeader: "X-GitHub-Event",
//		}),
//	)
package receiver
