package web

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// The identity provider posts its callback into a same-origin popup. This
// minimal page relays a structured message to the opening window and closes
// itself; the opener owns all UI.
var relayPage = template.Must(template.New("relay").Parse(`<!doctype html>
<html lang="ko">
<head>
<meta charset="utf-8" />
<title>본인인증</title>
</head>
<body>
<script>
(function () {
  var payload = {{.PayloadJSON}};
  if (window.opener) {
    window.opener.postMessage(payload, window.location.origin);
  }
  window.close();
})();
</script>
</body>
</html>`))

// relayMessage is the structured result posted to the opener.
type relayMessage struct {
	Type      string `json:"type"` // always "identity-verification"
	Outcome   string `json:"outcome"`
	MTxID     string `json:"mTxId,omitempty"`
	OwnerName string `json:"ownerName,omitempty"` // set on duplicate conflicts
	Message   string `json:"message,omitempty"`
}

func renderRelay(w http.ResponseWriter, status int, msg relayMessage) {
	msg.Type = "identity-verification"
	raw, err := json.Marshal(msg)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = relayPage.Execute(w, struct{ PayloadJSON template.JS }{PayloadJSON: template.JS(raw)})
}
