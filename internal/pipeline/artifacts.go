package pipeline

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/osgraph/osgraph/internal/graph"
	"github.com/osgraph/osgraph/internal/logger"
)

// RunDir creates the artifact directory for a run:
// <dataDir>/<subject with underscores>/<unix timestamp>/.
func RunDir(dataDir, subject string, now time.Time) (string, error) {
	name := strings.Join(strings.Fields(strings.ToLower(subject)), "_")
	dir := filepath.Join(dataDir, name, fmt.Sprintf("%d", now.Unix()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}
	return dir, nil
}

// WriteArtifacts persists everything a run produced. Artifact failures are
// reported together rather than aborting on the first one, so a bad disk
// still yields whatever could be written.
func WriteArtifacts(dir string, g *graph.Graph, docs []Document, failed []FailedLink) error {
	var errs []string
	write := func(name string, data []byte) {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			return
		}
		logger.Debug("artifact written", "file", name, "bytes", len(data))
	}

	graphJSON, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	write("final_graph.json", graphJSON)

	var md strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&md, "## %s\n\n_retrieved via %s_\n\n%s\n\n---\n\n", doc.URL, doc.Tier, doc.Content)
	}
	write("scraped_data.md", []byte(md.String()))

	if len(failed) > 0 {
		var txt strings.Builder
		for _, f := range failed {
			fmt.Fprintf(&txt, "%s\t%s\n", f.URL, f.Reason)
		}
		write("failed_links.txt", []byte(txt.String()))
	}

	page, err := renderGraphPage(graphJSON)
	if err != nil {
		errs = append(errs, fmt.Sprintf("final_graph.html: %v", err))
	} else {
		write("final_graph.html", page)
	}

	if len(errs) > 0 {
		return fmt.Errorf("write artifacts: %s", strings.Join(errs, "; "))
	}
	return nil
}

// graphPage is a self-contained viewer: the graph JSON is embedded and laid
// out with a small force simulation, no external assets.
var graphPage = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Knowledge Graph</title>
<style>
  body { margin: 0; font: 13px sans-serif; background: #111; color: #eee; }
  #info { position: fixed; top: 8px; left: 8px; max-width: 320px; background: #222a; padding: 8px; border-radius: 4px; }
  canvas { display: block; }
</style>
</head>
<body>
<div id="info">drag to pan, scroll to zoom, hover a node for details</div>
<canvas id="c"></canvas>
<script>
const data = {{.GraphJSON}};
const colors = {person:"#6cf",company:"#fc6",location:"#9f6",email:"#f9c",
  username:"#c9f",phone:"#f66",social_media:"#6fc",website:"#999",event:"#ff9",
  education:"#9cf",occupation:"#fcf",interest:"#cf9",relationship:"#f96",
  family:"#f6c",colleague:"#69f"};
const canvas = document.getElementById("c"), ctx = canvas.getContext("2d");
let W, H, tx = 0, ty = 0, scale = 1, hover = null;
function resize(){ W = canvas.width = innerWidth; H = canvas.height = innerHeight; }
addEventListener("resize", resize); resize();

const nodes = data.nodes.map((n, i) => ({...n,
  x: W/2 + Math.cos(i) * 200 * Math.random(),
  y: H/2 + Math.sin(i) * 200 * Math.random(), vx: 0, vy: 0}));
const byID = Object.fromEntries(nodes.map(n => [n.id, n]));
const edges = data.edges.filter(e => byID[e.source] && byID[e.target]);

function step(){
  for (const a of nodes) for (const b of nodes) {
    if (a === b) continue;
    const dx = a.x - b.x, dy = a.y - b.y, d2 = dx*dx + dy*dy + 0.01;
    const f = 2000 / d2;
    a.vx += dx * f / Math.sqrt(d2); a.vy += dy * f / Math.sqrt(d2);
  }
  for (const e of edges) {
    const a = byID[e.source], b = byID[e.target];
    const dx = b.x - a.x, dy = b.y - a.y;
    a.vx += dx * 0.002; a.vy += dy * 0.002;
    b.vx -= dx * 0.002; b.vy -= dy * 0.002;
  }
  for (const n of nodes) {
    n.vx += (W/2 - n.x) * 0.0005; n.vy += (H/2 - n.y) * 0.0005;
    n.x += n.vx *= 0.85; n.y += n.vy *= 0.85;
  }
}
function draw(){
  ctx.setTransform(1, 0, 0, 1, 0, 0); ctx.clearRect(0, 0, W, H);
  ctx.setTransform(scale, 0, 0, scale, tx, ty);
  ctx.strokeStyle = "#555";
  for (const e of edges) {
    const a = byID[e.source], b = byID[e.target];
    ctx.beginPath(); ctx.moveTo(a.x, a.y); ctx.lineTo(b.x, b.y); ctx.stroke();
  }
  for (const n of nodes) {
    ctx.fillStyle = colors[n.type] || "#ccc";
    ctx.beginPath(); ctx.arc(n.x, n.y, n === hover ? 9 : 6, 0, 7); ctx.fill();
    ctx.fillStyle = "#eee"; ctx.fillText(n.label, n.x + 9, n.y + 4);
  }
}
let ticks = 0;
(function loop(){ if (ticks++ < 600) step(); draw(); requestAnimationFrame(loop); })();

let dragging = false, lx = 0, ly = 0;
canvas.onmousedown = e => { dragging = true; lx = e.clientX; ly = e.clientY; };
canvas.onmouseup = () => dragging = false;
canvas.onmousemove = e => {
  if (dragging) { tx += e.clientX - lx; ty += e.clientY - ly; lx = e.clientX; ly = e.clientY; return; }
  const mx = (e.clientX - tx) / scale, my = (e.clientY - ty) / scale;
  hover = nodes.find(n => (n.x-mx)**2 + (n.y-my)**2 < 100) || null;
  document.getElementById("info").textContent = hover
    ? hover.label + " [" + hover.type + "] " + (hover.confidence || "") + (hover.source ? " — " + hover.source : "")
    : "drag to pan, scroll to zoom, hover a node for details";
};
canvas.onwheel = e => { e.preventDefault(); scale *= e.deltaY < 0 ? 1.1 : 0.9; };
</script>
</body>
</html>
`))

func renderGraphPage(graphJSON []byte) ([]byte, error) {
	var buf strings.Builder
	err := graphPage.Execute(&buf, struct{ GraphJSON template.JS }{template.JS(graphJSON)})
	if err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
