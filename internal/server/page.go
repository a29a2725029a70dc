/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Timeline</title>
<style>
body { font-family: sans-serif; margin: 0; min-height: 100vh; }
.timeline-control { position: fixed; display: flex; gap: .5rem; align-items: center; padding: .5rem; background: #fff; box-shadow: 0 1px 4px rgba(0,0,0,.3); }
.timeline-control--topright { top: 10px; right: 10px; }
.timeline-control--topleft { top: 10px; left: 10px; }
.timeline-control--bottomright { bottom: 10px; right: 10px; }
.timeline-control--bottomleft { bottom: 10px; left: 10px; }
.timeline-control__button { cursor: pointer; font-weight: bold; padding: .25rem .5rem; border: 1px solid #333; }
.timeline-control__timeline { display: flex; gap: 2px; }
.timeline-control__slot { cursor: pointer; padding: .25rem; color: #555; }
.timeline-control__slot--active { color: #000; font-weight: bold; border-bottom: 2px solid #000; }
</style>
</head>
<body>
<div id="timeline">{{.}}</div>
<script>
(function () {
  var box = document.getElementById("timeline");
  function refresh() {
    fetch("/control").then(function (r) { return r.text(); }).then(function (html) { box.innerHTML = html; });
  }
  box.addEventListener("click", function (ev) {
    var slot = ev.target.closest("[data-index]");
    if (slot) {
      fetch("/api/timeline/select/" + slot.dataset.index, { method: "POST" });
      return;
    }
    if (ev.target.closest(".timeline-control__button")) {
      fetch("/api/timeline/toggle", { method: "POST" });
    }
  });
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = refresh;
})();
</script>
</body>
</html>
`))
