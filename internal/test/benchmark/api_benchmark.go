package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// APIBenchmark 对运行中的服务执行并发压测
type APIBenchmark struct {
	BaseURL     string
	Concurrency int
	Requests    int
	AuthToken   string
	Client      *http.Client
}

// BenchmarkResult 汇总一次压测的统计数据
type BenchmarkResult struct {
	URL            string        `json:"url"`
	Method         string        `json:"method"`
	Concurrency    int           `json:"concurrency"`
	TotalRequests  int           `json:"total_requests"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	TotalTime      time.Duration `json:"total_time"`
	AverageTime    time.Duration `json:"average_time"`
	P95Time        time.Duration `json:"p95_time"`
	MaxTime        time.Duration `json:"max_time"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	StatusCodes    map[int]int   `json:"status_codes"`
	Errors         []string      `json:"errors"`
}

type sample struct {
	duration   time.Duration
	statusCode int
	err        error
}

// NewAPIBenchmark 创建压测实例
func NewAPIBenchmark(baseURL string, concurrency, requests int, authToken string) *APIBenchmark {
	return &APIBenchmark{
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Requests:    requests,
		AuthToken:   authToken,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// RunGET 压测GET接口
func (b *APIBenchmark) RunGET(path string) *BenchmarkResult {
	return b.run(http.MethodGet, b.BaseURL+path, nil)
}

// RunPOST 压测POST接口
func (b *APIBenchmark) RunPOST(path string, payload interface{}) *BenchmarkResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return &BenchmarkResult{
			URL:    b.BaseURL + path,
			Method: http.MethodPost,
			Errors: []string{fmt.Sprintf("JSON编码错误: %v", err)},
		}
	}
	return b.run(http.MethodPost, b.BaseURL+path, body)
}

// run 固定数量的worker从任务通道消费请求
func (b *APIBenchmark) run(method, url string, payload []byte) *BenchmarkResult {
	jobs := make(chan struct{}, b.Requests)
	samples := make(chan sample, b.Requests)

	for i := 0; i < b.Requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	startTime := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < b.Concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				samples <- b.doRequest(method, url, payload)
			}
		}()
	}

	wg.Wait()
	close(samples)

	return b.summarize(method, url, samples, time.Since(startTime))
}

func (b *APIBenchmark) doRequest(method, url string, payload []byte) sample {
	start := time.Now()

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return sample{err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.AuthToken)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return sample{err: err}
	}
	resp.Body.Close()

	return sample{duration: time.Since(start), statusCode: resp.StatusCode}
}

func (b *APIBenchmark) summarize(method, url string, samples chan sample, elapsed time.Duration) *BenchmarkResult {
	result := &BenchmarkResult{
		URL:           url,
		Method:        method,
		Concurrency:   b.Concurrency,
		TotalRequests: b.Requests,
		TotalTime:     elapsed,
		StatusCodes:   make(map[int]int),
	}

	var durations []time.Duration
	var totalTime time.Duration

	for s := range samples {
		if s.err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, s.err.Error())
			continue
		}

		durations = append(durations, s.duration)
		totalTime += s.duration
		if s.duration > result.MaxTime {
			result.MaxTime = s.duration
		}

		result.StatusCodes[s.statusCode]++
		if s.statusCode >= 200 && s.statusCode < 300 {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	if len(durations) > 0 {
		result.AverageTime = totalTime / time.Duration(len(durations))
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		result.P95Time = durations[len(durations)*95/100]
	}
	if elapsed > 0 {
		result.RequestsPerSec = float64(b.Requests) / elapsed.Seconds()
	}

	return result
}

// PrintResult 打印压测统计
func (r *BenchmarkResult) PrintResult() {
	fmt.Printf("压测结果: %s %s\n", r.Method, r.URL)
	fmt.Printf("并发数: %d, 总请求数: %d, 成功: %d, 失败: %d\n",
		r.Concurrency, r.TotalRequests, r.SuccessCount, r.FailureCount)
	fmt.Printf("总耗时: %s, 平均: %s, P95: %s, 最大: %s, QPS: %.2f\n",
		r.TotalTime, r.AverageTime, r.P95Time, r.MaxTime, r.RequestsPerSec)
	fmt.Printf("状态码分布:\n")
	for code, count := range r.StatusCodes {
		fmt.Printf("  %d: %d\n", code, count)
	}
	if len(r.Errors) > 0 {
		fmt.Printf("错误信息 (最多显示5个):\n")
		for i, err := range r.Errors {
			if i >= 5 {
				fmt.Printf("  ... 还有 %d 个错误\n", len(r.Errors)-5)
				break
			}
			fmt.Printf("  %s\n", err)
		}
	}
}
