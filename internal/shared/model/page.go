package model

// Page 分页结果封装
type Page[T any] struct {
	Results     []T  `json:"results"`
	TotalDocs   int  `json:"totalDocs"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	Page        int  `json:"page"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
	PrevPage    *int `json:"prevPage"`
	NextPage    *int `json:"nextPage"`
}

// NewPage 根据 page/limit/totalDocs 计算分页元数据
//
// totalPages = ceil(totalDocs / limit)；limit <= 0 时 totalPages 为 0。
func NewPage[T any](results []T, totalDocs, page, limit int) Page[T] {
	if results == nil {
		results = []T{}
	}
	totalPages := ceilDiv(totalDocs, limit)

	p := Page[T]{
		Results:     results,
		TotalDocs:   totalDocs,
		Limit:       limit,
		TotalPages:  totalPages,
		Page:        page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
	if p.HasPrevPage {
		prev := page - 1
		p.PrevPage = &prev
	}
	if p.HasNextPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}

// PageBounds 返回第 page 页在长度为 total 的列表中的切片区间 [start, end)
// 超出范围时返回空区间
func PageBounds(total, page, limit int) (start, end int) {
	if page < 1 || limit < 1 {
		return 0, 0
	}
	// 先比较页号，避免 (page-1)*limit 溢出
	if page-1 >= ceilDiv(total, limit) {
		return total, total
	}
	start = (page - 1) * limit
	if limit > total-start {
		return start, total
	}
	return start, start + limit
}

func ceilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
