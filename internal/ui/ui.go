// Package ui serves the local step editor page.
package ui

import (
	"html/template"
	"log"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
)

type pageData struct {
	ProjectName string
	ProjectPath string
}

// ServeEditor writes the editor page. All data loading happens client
// side over the /api endpoints and the websocket.
func ServeEditor(w http.ResponseWriter, projectPath string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		ProjectName: filepath.Base(projectPath),
		ProjectPath: projectPath,
	}
	if projectPath == "" {
		data.ProjectName = "No project"
	}
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[ERROR] rendering editor page: %v", err)
	}
}

// OpenBrowser opens the default browser at url.
func OpenBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "darwin":
		err = exec.Command("open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

var tmpl = template.Must(template.New("editor").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.ProjectName}} - Better Steps Recorder</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
            color: #e2e8f0;
            min-height: 100vh;
            padding: 2rem;
        }
        .container { max-width: 1000px; margin: 0 auto; }
        h1 {
            font-size: 1.75rem;
            font-weight: 700;
            margin-bottom: 0.25rem;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
        }
        .project-path { color: #64748b; font-size: 0.8rem; margin-bottom: 1.5rem; }
        .toolbar {
            display: flex;
            gap: 0.5rem;
            margin-bottom: 1.5rem;
            align-items: center;
        }
        .btn {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            border: none;
            border-radius: 8px;
            padding: 0.6rem 1.2rem;
            color: white;
            font-weight: 600;
            cursor: pointer;
            font-size: 0.875rem;
        }
        .btn:hover { filter: brightness(1.15); }
        .btn-secondary {
            background: rgba(255,255,255,0.1);
            border: 1px solid rgba(255,255,255,0.2);
        }
        .btn-danger { background: rgba(239,68,68,0.8); }
        .btn-record.on { background: rgba(239,68,68,0.9); }
        .step-card {
            background: rgba(255,255,255,0.05);
            border: 1px solid rgba(255,255,255,0.1);
            border-radius: 12px;
            padding: 1rem;
            margin-bottom: 0.75rem;
            display: flex;
            gap: 1rem;
            align-items: flex-start;
        }
        .step-card.selected { border-color: #667eea; }
        .step-num {
            background: rgba(102,126,234,0.2);
            color: #a5b4fc;
            border-radius: 6px;
            padding: 0.25rem 0.6rem;
            font-weight: 700;
            flex-shrink: 0;
        }
        .step-body { flex: 1; }
        .step-text {
            width: 100%;
            background: transparent;
            border: 1px solid transparent;
            border-radius: 6px;
            color: #e2e8f0;
            font-size: 0.95rem;
            padding: 0.3rem;
        }
        .step-text:focus { outline: none; border-color: #667eea; background: rgba(255,255,255,0.05); }
        .step-shot {
            max-width: 320px;
            border-radius: 8px;
            margin-top: 0.5rem;
            cursor: zoom-in;
        }
        .step-actions { display: flex; flex-direction: column; gap: 0.25rem; }
        .step-actions button {
            background: rgba(255,255,255,0.08);
            border: none;
            border-radius: 6px;
            color: #cbd5e1;
            cursor: pointer;
            padding: 0.3rem 0.55rem;
        }
        #status-bar {
            position: fixed;
            bottom: 2rem;
            right: 2rem;
            padding: 0.8rem 1.3rem;
            background: rgba(0,0,0,0.9);
            border-radius: 12px;
            display: none;
            color: white;
        }
        .empty { color: #64748b; text-align: center; padding: 3rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.ProjectName}}</h1>
        <div class="project-path">{{.ProjectPath}}</div>
        <div class="toolbar">
            <button id="record-btn" class="btn btn-record" onclick="toggleRecording()">Start Recording</button>
            <button class="btn btn-secondary" onclick="saveNow()">Save</button>
            <select id="export-format">
                <option value="html">HTML</option>
                <option value="rtf">RTF</option>
                <option value="odt">ODT</option>
                <option value="obsidian">Obsidian</option>
            </select>
            <button class="btn btn-secondary" onclick="exportSteps()">Export</button>
        </div>
        <div id="steps"></div>
    </div>
    <div id="status-bar"></div>

    <script>
        let steps = [];
        let recording = false;

        async function loadSteps() {
            const resp = await fetch('/api/steps');
            const data = await resp.json();
            steps = (data && data.steps) || [];
            render();
        }

        function render() {
            const el = document.getElementById('steps');
            if (steps.length === 0) {
                el.innerHTML = '<div class="empty">No steps recorded yet. Start recording and click around.</div>';
                return;
            }
            el.innerHTML = steps.map(s =>
                '<div class="step-card" data-id="' + s.id + '">' +
                '<div class="step-num">' + s.number + '</div>' +
                '<div class="step-body">' +
                '<input class="step-text" value="' + escapeHtml(s.text) + '" onchange="editText(\'' + s.id + '\', this.value)">' +
                (s.has_screenshot ? '<br><img class="step-shot" src="/api/screenshot?id=' + s.id + '" onclick="window.open(this.src)">' : '') +
                '</div>' +
                '<div class="step-actions">' +
                '<button onclick="move(\'' + s.id + '\', \'up\')">&#9650;</button>' +
                '<button onclick="move(\'' + s.id + '\', \'down\')">&#9660;</button>' +
                '<button onclick="removeStep(\'' + s.id + '\')">&#10005;</button>' +
                '</div></div>'
            ).join('');
        }

        function escapeHtml(s) {
            const d = document.createElement('div');
            d.textContent = s || '';
            return d.innerHTML.replace(/"/g, '&quot;');
        }

        async function post(url, body) {
            const resp = await fetch(url, {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify(body)
            });
            if (!resp.ok) showStatus(await resp.text());
            return resp.ok;
        }

        function move(id, direction) { post('/api/steps/move', {ids: [id], direction}); }
        function removeStep(id) { post('/api/steps/remove', {ids: [id]}); }
        function editText(id, text) { post('/api/steps/text', {id, text}); }
        async function saveNow() {
            if (await post('/api/save', {})) showStatus('Saved');
        }
        async function toggleRecording() {
            await post('/api/recording', {recording: !recording});
        }
        async function exportSteps() {
            const format = document.getElementById('export-format').value;
            const target = prompt('Export to (file or folder path):');
            if (!target) return;
            if (await post('/api/export', {format, target, title: ''})) showStatus('Exported');
        }

        function setRecording(on) {
            recording = on;
            const btn = document.getElementById('record-btn');
            btn.textContent = on ? 'Pause Recording' : 'Start Recording';
            btn.classList.toggle('on', on);
        }

        function showStatus(msg) {
            const bar = document.getElementById('status-bar');
            bar.textContent = msg;
            bar.style.display = 'block';
            setTimeout(() => bar.style.display = 'none', 3000);
        }

        function connect() {
            const ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onmessage = (ev) => {
                const msg = JSON.parse(ev.data);
                switch (msg.type) {
                case 'step_added':
                    loadSteps();
                    break;
                case 'steps_replaced':
                    steps = (msg.payload && msg.payload.steps) || [];
                    render();
                    break;
                case 'recording_state':
                    setRecording(msg.payload.recording);
                    break;
                case 'sync_error':
                    showStatus('Save failed: ' + msg.payload.error);
                    break;
                }
            };
            ws.onclose = () => setTimeout(connect, 2000);
        }

        loadSteps();
        fetch('/api/status').then(r => r.json()).then(s => setRecording(s.recording));
        connect();
    </script>
</body>
</html>`))
