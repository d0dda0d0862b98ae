package entity

import "strings"

// 配送状态（物料申请与配送分配共用）
const (
	StatusPending           = "PENDING"
	StatusPartiallyAssigned = "PARTIALLY_ASSIGNED"
	StatusAssigned          = "ASSIGNED"
	StatusSent              = "SENT"
)

var knownStatuses = []string{StatusPending, StatusPartiallyAssigned, StatusAssigned, StatusSent}

// ValidRequestTransitions 物料申请状态流转。申请状态由已分配数量推导，
// 一次分配即可覆盖全部数量时允许 PENDING 直接到 ASSIGNED。
var ValidRequestTransitions = map[string][]string{
	StatusPending:           {StatusPartiallyAssigned, StatusAssigned},
	StatusPartiallyAssigned: {StatusPartiallyAssigned, StatusAssigned},
	StatusAssigned:          {StatusSent},
}

// ValidAssignmentTransitions 配送分配状态流转
var ValidAssignmentTransitions = map[string][]string{
	StatusPending:  {StatusAssigned},
	StatusAssigned: {StatusSent},
}

// ParseStatus 解析状态字符串（忽略大小写和首尾空白），未知值返回 false
func ParseStatus(s string) (string, bool) {
	v := strings.ToUpper(strings.TrimSpace(s))
	for _, known := range knownStatuses {
		if v == known {
			return known, true
		}
	}
	return "", false
}

// CanTransition 判断 from -> to 是否合法。相同状态视为幂等。
func CanTransition(table map[string][]string, from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DeriveRequestStatus 根据累计分配数量计算申请状态
func DeriveRequestStatus(assigned, requested int) string {
	switch {
	case assigned <= 0:
		return StatusPending
	case assigned < requested:
		return StatusPartiallyAssigned
	default:
		return StatusAssigned
	}
}
