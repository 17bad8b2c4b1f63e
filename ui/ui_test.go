package ui

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizinsight/adapters/datareadiness/coercer"
	"bizinsight/adapters/excel"
	"bizinsight/adapters/llm"
	"bizinsight/app"
	"bizinsight/internal"
	"bizinsight/internal/analysis"
	"bizinsight/ports"
)

const salesCSV = "order_date,region,revenue\n2024-01-02,north,1200\n2024-01-01,south,300\n2024-01-03,north,40\n"

func newService(client ports.LLMClient) *app.DashboardService {
	config := excel.DefaultReaderConfig()
	return app.NewDashboardService(
		excel.NewDataReader(config, internal.Discard),
		client,
		coercer.NewTypeCoercer(config.CoercionConfig),
		5,
		internal.Discard,
	)
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

// handlers builds both routers over the same service
func handlers(t *testing.T, client ports.LLMClient, maxUpload int64) map[string]http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config := Config{Port: "0", MaxUploadBytes: maxUpload}

	server, err := NewServer(newService(client), config, internal.Discard)
	require.NoError(t, err)
	chiApp, err := NewApp(newService(client), config, internal.Discard)
	require.NoError(t, err)

	return map[string]http.Handler{"gin": server.Handler(), "chi": chiApp.Handler()}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexShowsCredentialBanner(t *testing.T) {
	for name, h := range handlers(t, nil, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), `name="file"`)
			assert.Contains(t, rec.Body.String(), "Add an OpenAI API key to enable AI insights.")
		})
	}

	for name, h := range handlers(t, &llm.MockLLMClient{}, 1<<20) {
		t.Run(name+" with key", func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.NotContains(t, rec.Body.String(), "Add an OpenAI API key")
		})
	}
}

func TestUploadRendersReport(t *testing.T) {
	client := &llm.MockLLMClient{Response: "Sales are **concentrated** in the north.<script>alert(1)</script>"}
	for name, h := range handlers(t, client, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, uploadRequest(t, "sales.csv", salesCSV))
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()

			assert.Contains(t, body, "1,540.00")
			assert.Contains(t, body, "revenue Over Time")
			assert.Contains(t, body, "Top region by revenue")
			assert.Equal(t, 2, strings.Count(body, "<svg"))
			assert.Contains(t, body, "<strong>concentrated</strong>")
			assert.NotContains(t, body, "<script>alert(1)</script>")
		})
	}
}

func TestUploadHTMXReturnsFragment(t *testing.T) {
	for name, h := range handlers(t, nil, 1<<20) {
		t.Run(name, func(t *testing.T) {
			req := uploadRequest(t, "sales.csv", salesCSV)
			req.Header.Set("HX-Request", "true")
			rec := serve(h, req)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "<html")
			assert.Contains(t, rec.Body.String(), "Data preview")
		})
	}
}

func TestUploadUnsupportedFile(t *testing.T) {
	for name, h := range handlers(t, nil, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, uploadRequest(t, "notes.pdf", "hello"))
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			body := rec.Body.String()
			assert.Equal(t, 1, strings.Count(body, `class="banner error"`))
			assert.Contains(t, body, "unsupported file type")
			assert.NotContains(t, body, "Data preview")
		})
	}
}

func TestUploadWithoutNumericColumns(t *testing.T) {
	client := &llm.MockLLMClient{}
	for name, h := range handlers(t, client, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, uploadRequest(t, "people.csv", "name,city\nann,oslo\nbob,rome\n"))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 1, strings.Count(rec.Body.String(), app.WarningNoNumeric))
			assert.NotContains(t, rec.Body.String(), "<svg")
		})
	}
	assert.Empty(t, client.Calls())
}

func TestUploadRejectsMissingAndOversizedFiles(t *testing.T) {
	for name, h := range handlers(t, nil, 64) {
		t.Run(name+" missing", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
			req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
			rec := serve(h, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
		t.Run(name+" oversized", func(t *testing.T) {
			rec := serve(h, uploadRequest(t, "big.csv", "a\n"+strings.Repeat("1\n", 500)))
			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Contains(t, rec.Body.String(), "upload exceeds the 64 B limit")
		})
	}
}

func TestUploadLimitBanner(t *testing.T) {
	for name, h := range handlers(t, nil, 5<<20) {
		t.Run(name+" limited", func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Contains(t, rec.Body.String(), "Maximum upload size: 5.0 MiB")
		})
	}

	for name, h := range handlers(t, nil, 0) {
		t.Run(name+" unlimited", func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.NotContains(t, rec.Body.String(), "Maximum upload size")

			big := "a\n" + strings.Repeat("1\n", 200000)
			rec = serve(h, uploadRequest(t, "big.csv", big))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "200,000.00")
		})
	}
}

func TestPanicRendersErrorText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config := Config{Port: "0"}

	server, err := NewServer(newService(nil), config, internal.Discard)
	require.NoError(t, err)
	server.router.GET("/explode", func(*gin.Context) { panic("chart backend exploded") })

	chiApp, err := NewApp(newService(nil), config, internal.Discard)
	require.NoError(t, err)
	chiApp.router.Get("/explode", func(http.ResponseWriter, *http.Request) { panic("chart backend exploded") })

	for name, h := range map[string]http.Handler{"gin": server.Handler(), "chi": chiApp.Handler()} {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/explode", nil))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Error: chart backend exploded", rec.Body.String())
		})
	}
}

func TestHealthz(t *testing.T) {
	for name, h := range handlers(t, nil, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		})
	}
}

func TestStaticAssets(t *testing.T) {
	for name, h := range handlers(t, nil, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), ".card")
		})
	}
}

func TestCharts(t *testing.T) {
	bars := &analysis.BarSeries{
		Title:          "Top <b> by v",
		CategoryColumn: "<b>",
		Bars:           []analysis.Bar{{Category: "<script>", Value: 3}, {Category: "b", Value: 3}},
	}
	out := string(svgBars(bars))
	assert.Contains(t, out, "<svg")
	assert.NotContains(t, out, "<script>")

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	single := &analysis.LineSeries{Title: "v Over Time", XColumn: "date", YColumn: "v", Points: []analysis.Point{{At: day, Value: 5}}}
	assert.Contains(t, string(svgLine(single)), "<svg", "a single point still renders")

	flat := &analysis.LineSeries{XColumn: "date", YColumn: "v", Points: []analysis.Point{{At: day, Value: 5}, {At: day.AddDate(0, 0, 1), Value: 5}}}
	assert.Contains(t, string(svgLine(flat)), "<svg")

	assert.Contains(t, string(svgLine(nil)), "No plottable rows.")
	assert.Contains(t, string(svgBars(&analysis.BarSeries{})), "No categories to rank.")
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "north", truncateLabel("north"))
	assert.Equal(t, "a very long…", truncateLabel("a very long category name"))
}

func TestRenderMarkdown(t *testing.T) {
	assert.Equal(t, "", string(renderMarkdown("")))
	out := string(renderMarkdown("# Summary\n\n- revenue up\n- costs flat"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<li>revenue up</li>")
}

func TestNarrativeFailureKeepsCharts(t *testing.T) {
	client := &llm.MockLLMClient{Error: context.DeadlineExceeded}
	for name, h := range handlers(t, client, 1<<20) {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, uploadRequest(t, "sales.csv", salesCSV))
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "AI insights")
			assert.Contains(t, body, "Error: context deadline exceeded")
			assert.Equal(t, 2, strings.Count(body, "<svg"))
		})
	}
}
