package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockedResourceTypes are non-essential resource classes that cost
// bandwidth and render time but contribute nothing to the HTML the
// extractor reads. Scripts stay allowed since several listing sites
// render card data client-side.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage:      {},
	proto.NetworkResourceTypeStylesheet: {},
	proto.NetworkResourceTypeFont:       {},
	proto.NetworkResourceTypeMedia:      {},
}

// setupHijack installs a request interceptor that fails requests for
// blockedResourceTypes and continues everything else. Returns the running
// router so the caller can Stop it on session teardown.
func setupHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, block := blockedResourceTypes[ctx.Request.Type()]; block {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
	return router
}
