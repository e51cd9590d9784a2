package checkout

import "context"

// KhaltiPayload is what the widget hands back on success; it is forwarded
// verbatim to the server's verification endpoint.
type KhaltiPayload struct {
	Token       string `json:"token"`
	AmountPaisa int64  `json:"amount"`
}

// KhaltiConfig parameterizes one widget invocation. Amounts are in paisa,
// the gateway's minor unit.
type KhaltiConfig struct {
	PublicKey       string
	ProductIdentity string
	ProductName     string
	AmountPaisa     int64
}

// KhaltiHandlers are the callbacks the orchestrator registers with the
// widget. The widget invokes exactly one of them per Show: OnSuccess with
// the payment payload, OnError on gateway-reported failure, or OnClose when
// the user dismisses the widget without paying — which is neither success
// nor failure.
type KhaltiHandlers struct {
	OnSuccess func(payload KhaltiPayload)
	OnError   func(err error)
	OnClose   func()
}

// KhaltiWidget is the external payment widget. Implementations bridge to
// whatever UI surface hosts the checkout; tests use a scripted fake.
type KhaltiWidget interface {
	Show(ctx context.Context, cfg KhaltiConfig, h KhaltiHandlers)
}
