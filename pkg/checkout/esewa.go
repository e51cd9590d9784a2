package checkout

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"bookpasal/pkg/domain"
)

// EsewaForm is the auto-submitted form that hands the user off to the eSewa
// gateway via full-page navigation. This branch has no client-side terminal
// state: resolution happens on a separate page load against the return URL.
type EsewaForm struct {
	Action string
	Fields map[string]string
}

// buildEsewaForm assembles the gateway's required hidden fields. The total
// is the server-provided amount verbatim; the service/delivery/tax charges
// are zero because the order total already includes them.
func buildEsewaForm(gatewayURL, merchantCode string, total domain.Amount, orderID int64, returnBase string) EsewaForm {
	amount := total.String()
	base := strings.TrimRight(returnBase, "/")
	return EsewaForm{
		Action: gatewayURL,
		Fields: map[string]string{
			"amt":   amount,
			"psc":   "0",
			"pdc":   "0",
			"txAmt": "0",
			"tAmt":  amount,
			"pid":   fmt.Sprintf("%d", orderID),
			"scd":   merchantCode,
			"su":    fmt.Sprintf("%s/payment/success/%d", base, orderID),
			"fu":    fmt.Sprintf("%s/payment/failure/%d", base, orderID),
		},
	}
}

// AutoSubmitHTML renders the form as a self-submitting HTML page.
func (f EsewaForm) AutoSubmitHTML() string {
	names := make([]string, 0, len(f.Fields))
	for name := range f.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "<form id=\"esewa\" method=\"POST\" action=%q>\n", f.Action)
	for _, name := range names {
		fmt.Fprintf(&b, "  <input type=\"hidden\" name=%q value=%q>\n",
			html.EscapeString(name), html.EscapeString(f.Fields[name]))
	}
	b.WriteString("</form>\n<script>document.getElementById(\"esewa\").submit()</script>\n")
	return b.String()
}
