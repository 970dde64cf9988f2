package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Ответы API. Типы дублируются из api/dto.go: CLI не импортирует
// internal/api и общается с сервером только через JSON.

// Spec — документ развёртывания.
type Spec struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// SpecVersion — версия документа развёртывания.
type SpecVersion struct {
	SpecID    string          `json:"spec_id"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt string          `json:"created_at"`
}

// Run — запуск workflow.
type Run struct {
	ID             string `json:"id"`
	SpecID         string `json:"spec_id"`
	Version        int    `json:"version"`
	Status         string `json:"status"`
	StartedAt      string `json:"started_at,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`
	Error          string `json:"error,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// TaskResult — исход одной задачи ветки отчёта.
type TaskResult struct {
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// BranchResult — исход одной ветки отчёта.
type BranchResult struct {
	BranchID   string       `json:"branch_id"`
	Phase      string       `json:"phase"`
	Subject    string       `json:"subject"`
	Status     string       `json:"status"`
	Error      string       `json:"error,omitempty"`
	Tasks      []TaskResult `json:"tasks"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at"`
}

// Report — итоговый отчёт выполнения run.
type Report struct {
	Status         string         `json:"status"`
	Branches       []BranchResult `json:"branches"`
	FailedBranches []string       `json:"failed_branches,omitempty"`
}

// Schedule — расписание запусков.
type Schedule struct {
	ID          string `json:"id"`
	SpecID      string `json:"spec_id"`
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone"`
	Version     int    `json:"version,omitempty"`
	Enabled     bool   `json:"enabled"`
	NextDueAt   string `json:"next_due_at,omitempty"`
	LastRunAt   string `json:"last_run_at,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Param — запись каталога параметров обнаружения.
type Param struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

// Запросы API.

// CreateSpecRequest — запрос на создание документа.
type CreateSpecRequest struct {
	Name string `json:"name"`
}

// CreateRunRequest — запрос на запуск workflow.
type CreateRunRequest struct {
	Version        *int   `json:"version,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CreateScheduleRequest — запрос на создание расписания.
type CreateScheduleRequest struct {
	Name        string `json:"name"`
	CronExpr    string `json:"cron_expr,omitempty"`
	IntervalSec int    `json:"interval_sec,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	Version     int    `json:"version,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// UpdateScheduleRequest — запрос на обновление расписания.
type UpdateScheduleRequest struct {
	Name        *string `json:"name,omitempty"`
	CronExpr    *string `json:"cron_expr,omitempty"`
	IntervalSec *int    `json:"interval_sec,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	Version     *int    `json:"version,omitempty"`
}

type setEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// Обёртки ответов сервера.

type dataResponse[T any] struct {
	Data T `json:"data"`
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code     string   `json:"code"`
		Message  string   `json:"message"`
		Problems []string `json:"problems,omitempty"`
	} `json:"error"`
}

// Client — HTTP-клиент Cascade API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для заданного адреса API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Specs

// ListSpecs возвращает все документы развёртывания.
func (c *Client) ListSpecs() ([]Spec, error) {
	return list[Spec](c, "/api/v1/specs")
}

// CreateSpec создаёт документ с заданным именем.
func (c *Client) CreateSpec(name string) (*Spec, error) {
	return doData[Spec](c, http.MethodPost, "/api/v1/specs", CreateSpecRequest{Name: name})
}

// GetSpec возвращает документ по ID.
func (c *Client) GetSpec(id string) (*Spec, error) {
	return doData[Spec](c, http.MethodGet, "/api/v1/specs/"+id, nil)
}

// DeleteSpec удаляет документ.
func (c *Client) DeleteSpec(id string) error {
	return c.delete("/api/v1/specs/" + id)
}

// ListSpecVersions возвращает версии документа.
func (c *Client) ListSpecVersions(specID string) ([]SpecVersion, error) {
	return list[SpecVersion](c, "/api/v1/specs/"+specID+"/versions")
}

// CreateSpecVersion публикует новую версию документа.
// Сервер полностью валидирует документ перед сохранением.
func (c *Client) CreateSpecVersion(specID string, document json.RawMessage) (*SpecVersion, error) {
	body := map[string]json.RawMessage{"document": document}
	return doData[SpecVersion](c, http.MethodPost, "/api/v1/specs/"+specID+"/versions", body)
}

// GetSpecVersion возвращает конкретную версию документа.
func (c *Client) GetSpecVersion(specID string, version int) (*SpecVersion, error) {
	return doData[SpecVersion](c, http.MethodGet,
		"/api/v1/specs/"+specID+"/versions/"+strconv.Itoa(version), nil)
}

// Runs

// ListRunsOpts — фильтры для списка runs.
type ListRunsOpts struct {
	SpecID string
	Status string
	Limit  int
}

// ListRuns возвращает runs с учётом фильтров.
func (c *Client) ListRuns(opts ListRunsOpts) ([]Run, error) {
	q := url.Values{}
	if opts.SpecID != "" {
		q.Set("spec_id", opts.SpecID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	path := "/api/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return list[Run](c, path)
}

// CreateRun запускает workflow для документа.
func (c *Client) CreateRun(specID string, req CreateRunRequest) (*Run, error) {
	return doData[Run](c, http.MethodPost, "/api/v1/specs/"+specID+"/runs", req)
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*Run, error) {
	return doData[Run](c, http.MethodGet, "/api/v1/runs/"+id, nil)
}

// GetRunReport возвращает отчёт run. Отчёт появляется после
// завершения выполнения.
func (c *Client) GetRunReport(id string) (*Report, error) {
	return doData[Report](c, http.MethodGet, "/api/v1/runs/"+id+"/report", nil)
}

// CancelRun запрашивает отмену run. Отмена асинхронная: сервер
// подтверждает приём запроса, статус меняется позже.
func (c *Client) CancelRun(id string) (*Run, error) {
	return doData[Run](c, http.MethodPost, "/api/v1/runs/"+id+"/cancel", nil)
}

// Schedules

// ListSchedules возвращает расписания, опционально по документу.
func (c *Client) ListSchedules(specID string) ([]Schedule, error) {
	path := "/api/v1/schedules"
	if specID != "" {
		path += "?spec_id=" + url.QueryEscape(specID)
	}
	return list[Schedule](c, path)
}

// CreateSchedule создаёт расписание для документа.
func (c *Client) CreateSchedule(specID string, req CreateScheduleRequest) (*Schedule, error) {
	return doData[Schedule](c, http.MethodPost, "/api/v1/specs/"+specID+"/schedules", req)
}

// GetSchedule возвращает расписание по ID.
func (c *Client) GetSchedule(id string) (*Schedule, error) {
	return doData[Schedule](c, http.MethodGet, "/api/v1/schedules/"+id, nil)
}

// UpdateSchedule обновляет расписание.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*Schedule, error) {
	return doData[Schedule](c, http.MethodPut, "/api/v1/schedules/"+id, req)
}

// DeleteSchedule удаляет расписание.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// EnableSchedule включает расписание.
func (c *Client) EnableSchedule(id string) (*Schedule, error) {
	return doData[Schedule](c, http.MethodPut, "/api/v1/schedules/"+id+"/enabled", setEnabledRequest{Enabled: true})
}

// DisableSchedule выключает расписание.
func (c *Client) DisableSchedule(id string) (*Schedule, error) {
	return doData[Schedule](c, http.MethodPut, "/api/v1/schedules/"+id+"/enabled", setEnabledRequest{Enabled: false})
}

// Params

// ListParams возвращает параметры каталога с заданным префиксом пути.
func (c *Client) ListParams(prefix string) ([]Param, error) {
	path := "/api/v1/params"
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}
	return list[Param](c, path)
}

// HTTP helpers

func list[T any](c *Client, path string) ([]T, error) {
	body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp listResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return resp.Data, nil
}

func doData[T any](c *Client, method, path string, reqBody any) (*T, error) {
	body, err := c.do(method, path, reqBody)
	if err != nil {
		return nil, err
	}

	var resp dataResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp.Data, nil
}

func (c *Client) delete(path string) error {
	_, err := c.do(http.MethodDelete, path, nil)
	return err
}

func (c *Client) do(method, path string, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, checkError(resp.StatusCode, body)
	}
	return body, nil
}

func checkError(status int, body []byte) error {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Code != "" {
		if len(er.Error.Problems) > 0 {
			msg := er.Error.Message
			for _, p := range er.Error.Problems {
				msg += "\n  - " + p
			}
			return fmt.Errorf("%s: %s", er.Error.Code, msg)
		}
		return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
	}
	return fmt.Errorf("unexpected status %d", status)
}
