package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/equitysage/equitysage/internal/domain"
	"github.com/equitysage/equitysage/pkg/retrier"
)

const (
	yahooBaseURL        = "https://query1.finance.yahoo.com"
	defaultFetchTimeout = 30 * time.Second
	defaultRateLimit    = 5 // requests per second
	defaultHistoryRange = "1y"
)

// YahooClient fetches quotes, historical bars and financial statement data
// from the Yahoo Finance public API.
type YahooClient struct {
	baseURL      string
	historyRange string
	httpClient   *http.Client
	limiter      *rate.Limiter
	retrier      *retrier.Retrier
	logger       *zap.Logger
	now          func() time.Time
}

// YahooOption configures the YahooClient.
type YahooOption func(*YahooClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the request rate limit per second.
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(c *YahooClient) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithHistoryRange sets the historical bar range requested from the chart
// API, e.g. "1y" or "6mo".
func WithHistoryRange(historyRange string) YahooOption {
	return func(c *YahooClient) {
		c.historyRange = historyRange
	}
}

// NewYahooClient creates a market data client.
func NewYahooClient(logger *zap.Logger, opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL:      yahooBaseURL,
		historyRange: defaultHistoryRange,
		httpClient: &http.Client{
			Timeout: defaultFetchTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
		retrier: retrier.New(
			retrier.WithMaxRetries(2),
			retrier.WithInitialInterval(2*time.Second),
			retrier.WithRetryIf(isTransient),
		),
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusError marks non-200 responses so the retrier can distinguish
// server-side hiccups from hard failures.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo: status %d: %s", e.code, e.body)
}

func isTransient(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// chart API response

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				RegularMarketVol   int64   `json:"regularMarketVolume"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// quoteSummary API response: numeric fields come wrapped as {raw, fmt}.

type yfValue struct {
	Raw *float64 `json:"raw"`
}

func (v yfValue) metric() domain.Metric {
	if v.Raw == nil {
		return domain.Unavailable
	}
	return domain.MetricFromFloat(*v.Raw)
}

func (v yfValue) decimal() decimal.Decimal {
	if v.Raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v.Raw)
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func (c *YahooClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	body, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read response body")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{code: resp.StatusCode, body: truncate(string(b), 200)}
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// FetchMarket retrieves a full market snapshot: one year of daily bars plus
// the current quote and company profile.
func (c *YahooClient) FetchMarket(ctx context.Context, ticker domain.Ticker) (*domain.MarketSnapshot, error) {
	var chart yahooChart
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", c.historyRange)
	if err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(ticker.Symbol()), params, &chart); err != nil {
		return nil, &domain.UpstreamDataError{Ticker: ticker.Base, Cause: err}
	}
	if chart.Chart.Error != nil {
		notFound := strings.EqualFold(chart.Chart.Error.Code, "not found")
		return nil, &domain.UpstreamDataError{
			Ticker:   ticker.Base,
			NotFound: notFound,
			Cause:    fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description),
		}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, &domain.UpstreamDataError{Ticker: ticker.Base, NotFound: true}
	}

	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil, &domain.UpstreamDataError{Ticker: ticker.Base, NotFound: true}
	}
	quote := res.Indicators.Quote[0]

	bars := make([]domain.Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, cl := deref(quote.Open, i), deref(quote.High, i), deref(quote.Low, i), deref(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bars on holidays
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		bars = append(bars, domain.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   decimal.NewFromFloat(o),
			High:   decimal.NewFromFloat(h),
			Low:    decimal.NewFromFloat(l),
			Close:  decimal.NewFromFloat(cl),
			Volume: vol,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if res.Meta.RegularMarketPrice == 0 {
		return nil, &domain.UpstreamDataError{Ticker: ticker.Base, NotFound: true}
	}

	snapshot := &domain.MarketSnapshot{
		Ticker: ticker,
		Company: domain.CompanyInfo{
			Name:     res.Meta.LongName,
			Exchange: ticker.ExchangeName(),
		},
		Price:         decimal.NewFromFloat(res.Meta.RegularMarketPrice),
		PreviousClose: decimal.NewFromFloat(previousClose(res.Meta.PreviousClose, res.Meta.ChartPreviousClose)),
		Volume:        res.Meta.RegularMarketVol,
		High52W:       decimal.NewFromFloat(res.Meta.FiftyTwoWeekHigh),
		Low52W:        decimal.NewFromFloat(res.Meta.FiftyTwoWeekLow),
		Bars:          bars,
		FetchedAt:     c.now(),
	}
	if snapshot.Company.Name == "" {
		snapshot.Company.Name = ticker.Base
	}

	// profile and day-level detail come from the summary endpoint; failures
	// here leave the snapshot usable, so they only log
	if err := c.enrichFromSummary(ctx, ticker, snapshot); err != nil {
		c.logger.Warn("company profile unavailable",
			zap.String("ticker", ticker.Base), zap.Error(err))
	}

	return snapshot, nil
}

func (c *YahooClient) enrichFromSummary(ctx context.Context, ticker domain.Ticker, s *domain.MarketSnapshot) error {
	summary, err := c.fetchSummary(ctx, ticker, "price,assetProfile")
	if err != nil {
		return err
	}
	if summary.AssetProfile != nil {
		s.Company.Sector = summary.AssetProfile.Sector
		s.Company.Industry = summary.AssetProfile.Industry
	}
	if summary.Price != nil {
		if summary.Price.LongName != "" {
			s.Company.Name = summary.Price.LongName
		}
		s.MarketCap = summary.Price.MarketCap.metric()
		s.Open = summary.Price.RegularOpen.decimal()
		s.DayHigh = summary.Price.DayHigh.decimal()
		s.DayLow = summary.Price.DayLow.decimal()
		if summary.Price.AvgVolume.Raw != nil {
			s.AvgVolume = int64(*summary.Price.AvgVolume.Raw)
		}
	}
	return nil
}

// FetchFinancials retrieves the financial statement snapshot used for ratio
// computation.
func (c *YahooClient) FetchFinancials(ctx context.Context, ticker domain.Ticker) (*domain.FinancialSnapshot, error) {
	res, err := c.fetchSummary(ctx, ticker,
		"financialData,defaultKeyStatistics,summaryDetail,incomeStatementHistory")
	if err != nil {
		return nil, &domain.UpstreamDataError{Ticker: ticker.Base, Cause: err}
	}

	snapshot := &domain.FinancialSnapshot{
		Ticker:    ticker,
		FetchedAt: c.now(),
	}

	if fd := res.FinancialData; fd != nil {
		snapshot.GrossMargin = fd.GrossMargins.metric()
		snapshot.OperatingMargin = fd.OperatingMargins.metric()
		snapshot.ProfitMargin = fd.ProfitMargins.metric()
		snapshot.ReturnOnEquity = fd.ReturnOnEquity.metric()
		snapshot.ReturnOnAssets = fd.ReturnOnAssets.metric()
		snapshot.CurrentRatio = fd.CurrentRatio.decimal()
		snapshot.QuickRatio = fd.QuickRatio.decimal()
		snapshot.TotalDebt = fd.TotalDebt.decimal()
		snapshot.TotalCash = fd.TotalCash.decimal()
		snapshot.OperatingCashflow = fd.OperatingCashflow.decimal()
		snapshot.FreeCashflow = fd.FreeCashflow.decimal()
		snapshot.Revenue = fd.TotalRevenue.decimal()
	}
	if sd := res.SummaryDetail; sd != nil {
		snapshot.PERatio = sd.TrailingPE.metric()
		snapshot.ForwardPE = sd.ForwardPE.metric()
		snapshot.PSRatio = sd.PriceToSales.metric()
		snapshot.DividendYield = sd.DividendYield.metric()
		snapshot.PayoutRatio = sd.PayoutRatio.metric()
	}
	if ks := res.KeyStatistics; ks != nil {
		snapshot.PBRatio = ks.PriceToBook.metric()
		snapshot.PEGRatio = ks.PEGRatio.metric()
		snapshot.EVToEBITDA = ks.EnterpriseEV.metric()
		snapshot.NetIncome = ks.NetIncomeToCom.decimal()
		// book value per share * shares outstanding approximates total equity
		if ks.BookValue.Raw != nil && ks.SharesOut.Raw != nil {
			snapshot.TotalEquity = ks.BookValue.decimal().Mul(ks.SharesOut.decimal())
		}
	}
	if ih := res.IncomeHistory; ih != nil && len(ih.Statements) >= 2 {
		// statements are newest first
		if snapshot.Revenue.IsZero() {
			snapshot.Revenue = ih.Statements[0].TotalRevenue.decimal()
		}
		if snapshot.NetIncome.IsZero() {
			snapshot.NetIncome = ih.Statements[0].NetIncome.decimal()
		}
		snapshot.PriorRevenue = ih.Statements[1].TotalRevenue.decimal()
		snapshot.PriorNetIncome = ih.Statements[1].NetIncome.decimal()
	}

	return snapshot, nil
}

type summaryResult struct {
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	Price *struct {
		LongName    string  `json:"longName"`
		ShortName   string  `json:"shortName"`
		MarketCap   yfValue `json:"marketCap"`
		RegularOpen yfValue `json:"regularMarketOpen"`
		DayHigh     yfValue `json:"regularMarketDayHigh"`
		DayLow      yfValue `json:"regularMarketDayLow"`
		AvgVolume   yfValue `json:"averageDailyVolume10Day"`
	} `json:"price"`
	SummaryDetail *struct {
		DividendYield yfValue `json:"dividendYield"`
		PayoutRatio   yfValue `json:"payoutRatio"`
		TrailingPE    yfValue `json:"trailingPE"`
		ForwardPE     yfValue `json:"forwardPE"`
		PriceToSales  yfValue `json:"priceToSalesTrailing12Months"`
	} `json:"summaryDetail"`
	FinancialData *struct {
		GrossMargins      yfValue `json:"grossMargins"`
		OperatingMargins  yfValue `json:"operatingMargins"`
		ProfitMargins     yfValue `json:"profitMargins"`
		ReturnOnEquity    yfValue `json:"returnOnEquity"`
		ReturnOnAssets    yfValue `json:"returnOnAssets"`
		CurrentRatio      yfValue `json:"currentRatio"`
		QuickRatio        yfValue `json:"quickRatio"`
		TotalDebt         yfValue `json:"totalDebt"`
		TotalCash         yfValue `json:"totalCash"`
		OperatingCashflow yfValue `json:"operatingCashflow"`
		FreeCashflow      yfValue `json:"freeCashflow"`
		TotalRevenue      yfValue `json:"totalRevenue"`
	} `json:"financialData"`
	KeyStatistics *struct {
		PriceToBook    yfValue `json:"priceToBook"`
		PEGRatio       yfValue `json:"pegRatio"`
		EnterpriseEV   yfValue `json:"enterpriseToEbitda"`
		BookValue      yfValue `json:"bookValue"`
		SharesOut      yfValue `json:"sharesOutstanding"`
		NetIncomeToCom yfValue `json:"netIncomeToCommon"`
	} `json:"defaultKeyStatistics"`
	IncomeHistory *struct {
		Statements []struct {
			TotalRevenue yfValue `json:"totalRevenue"`
			NetIncome    yfValue `json:"netIncome"`
		} `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
}

func (c *YahooClient) fetchSummary(ctx context.Context, ticker domain.Ticker, modules string) (*summaryResult, error) {
	var summary yahooSummary
	params := url.Values{}
	params.Set("modules", modules)
	path := "/v10/finance/quoteSummary/" + url.PathEscape(ticker.Symbol())
	if err := c.get(ctx, path, params, &summary); err != nil {
		return nil, err
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, errors.New("yahoo: empty quote summary")
	}
	return &summary.QuoteSummary.Result[0], nil
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

func previousClose(previous, chartPrevious float64) float64 {
	if previous != 0 {
		return previous
	}
	return chartPrevious
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
