package util

import "time"

// Clock 固定时区的本地日计算。每日次数限制、签到都以该时区的
// 自然日为边界，不按 UTC 零点。
type Clock struct {
	loc *time.Location
}

func NewClock(timezone string) (*Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Clock{loc: loc}, nil
}

func (c *Clock) Now() time.Time {
	return time.Now().In(c.loc)
}

// LocalDay 返回时刻所属的本地日（格式 2006-01-02）
func (c *Clock) LocalDay(t time.Time) string {
	return t.In(c.loc).Format(DateFormat)
}

// DayRange 返回时刻所属本地日的 [dayStart, dayEnd) 区间
func (c *Clock) DayRange(t time.Time) (time.Time, time.Time) {
	local := t.In(c.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	return start, start.Add(24 * time.Hour)
}
