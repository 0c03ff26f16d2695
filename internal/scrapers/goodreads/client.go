// client.go contains the http side of the scraper, fetching shelf pages and
// following the pagination links between them.

package goodreads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"readshelf/internal/components/assert"
	"readshelf/internal/components/telemetry"
	"readshelf/pkg/htmlutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/goodreads")

const (
	report_client_fetch_page = "client.fetch-page"
	report_client_next_page  = "client.next-page"
)

// DefaultBaseUrl is the site every pagination link is resolved against.
const DefaultBaseUrl = "https://www.goodreads.com"

var ErrHttpStatus = errors.New("unexpected http status")

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// RequestsPerSecond limits the request rate, 0 disables the limit.
	RequestsPerSecond float64
	// Timeout of a single request, 0 means no timeout.
	Timeout time.Duration
	// DisableCloudflareBypass keeps the plain go transport instead of one
	// that mimics a browser's tls fingerprint.
	DisableCloudflareBypass bool
	// Output receives a dump of every request/response pair, it may be nil.
	Output telemetry.MessageOutput
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("goodreads_scraper", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if !opts.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		// burst of 1 keeps a single request in flight at the configured pace
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	c := &Client{
		BaseUrl: parsedBaseUrl,
		Http:    httpClient,
		tel:     tel,
	}
	return c, nil
}

// FetchPage downloads and parses a single shelf page.
func (c *Client) FetchPage(ctx context.Context, pageUrl string) (Page, error) {
	ctx, span := tracer.Start(ctx, "FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", pageUrl))

	c.tel.ReportDebug(report_client_fetch_page, pageUrl)

	fail := func(err error) (Page, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportBroken(report_client_fetch_page, err, pageUrl)
		return Page{}, fmt.Errorf("goodreads scraper: fetch %s: %w", pageUrl, err)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil {
		return fail(fmt.Errorf("request: %w", err))
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))
	if res.StatusCode() < 200 || res.StatusCode() > 299 {
		return fail(fmt.Errorf("%w: %s", ErrHttpStatus, res.Status()))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fail(fmt.Errorf("parse: %w", err))
	}

	next, err := c.nextPage(doc)
	if err != nil {
		return fail(err)
	}

	return Page{
		Url:      pageUrl,
		Document: doc,
		Next:     next,
	}, nil
}

// nextPage resolves the shelf's "next" link against the base url, it returns
// an empty string on the last page.
func (c *Client) nextPage(doc *goquery.Document) (string, error) {
	link, ok := htmlutil.Find(doc.Selection, "a.next_page")
	if !ok {
		return "", nil
	}

	next, err := htmlutil.ResolveHref(c.BaseUrl, link)
	if err != nil {
		c.tel.ReportWarning(report_client_next_page, err)
		return "", fmt.Errorf("%w: next page link: %w", ErrUnexpectedLayout, err)
	}
	return next, nil
}
