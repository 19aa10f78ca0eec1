package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

func pageParams(c *gin.Context, cfg config.PaginationConfig) (utils.PageParams, error) {
	return utils.ParsePageParams(c.Query("page"), c.Query("limit"), c.Query("offset"), cfg.DefaultLimit, cfg.MaxLimit)
}

// listPage counts and loads one page of query, which must already carry
// its filters. The two statements share the same predicate; preloads only
// apply to the data query.
func listPage(query *gorm.DB, page utils.PageParams, order string, dst interface{}, preloads ...string) (utils.Pagination, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return utils.Pagination{}, utils.NewDatabaseError(err)
	}
	data := query.Session(&gorm.Session{})
	for _, p := range preloads {
		data = data.Preload(p)
	}
	err := data.Order(order).Limit(page.Limit).Offset(page.Offset).Find(dst).Error
	if err != nil {
		return utils.Pagination{}, utils.NewDatabaseError(err)
	}
	return utils.NewPagination(total, page.Limit, page.Offset), nil
}

func applyPredicate(query *gorm.DB, pred utils.Predicate) *gorm.DB {
	if pred.Empty() {
		return query
	}
	return query.Where(pred.Clause, pred.Args...)
}
