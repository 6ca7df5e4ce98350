package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrInvariantViolation 内部不变量被破坏（如预约唯一索引冲突）。
// 出现该错误说明上游并发控制失效，属于内部错误，不映射为用户可纠正的业务拒绝。
var ErrInvariantViolation = errors.New("内部不变量冲突：并发控制失效")
