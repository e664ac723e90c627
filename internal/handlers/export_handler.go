package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"timetable-service/internal/models"
)

// ExportSection handles GET /api/timetable/export/section/:sectionId and
// renders the section's weekly grid (periods down, days across) as an .xlsx
// workbook.
func (h *TimetableHandler) ExportSection(c *gin.Context) {
	id, err := parseID(c.Param("sectionId"))
	if err != nil {
		respondFail(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.svc.EntriesForSection(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	slots, err := h.svc.TimeSlots(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}

	f := excelize.NewFile()
	sheet := "Timetable"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "Period")
	for i, day := range models.DaysOfWeek {
		col, _ := excelize.ColumnNumberToName(i + 2)
		f.SetCellValue(sheet, col+"1", day)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	lastCol, _ := excelize.ColumnNumberToName(len(models.DaysOfWeek) + 1)
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	// Period rows follow whatever slots are defined, one row per period, with
	// the slot times in the label when every day shares them.
	periods := []int{}
	seen := map[int]struct{}{}
	times := map[int]string{}
	for _, slot := range slots {
		if _, ok := seen[slot.Period]; !ok {
			seen[slot.Period] = struct{}{}
			periods = append(periods, slot.Period)
			times[slot.Period] = fmt.Sprintf("%s-%s", slot.StartTime, slot.EndTime)
		}
	}

	cell := map[string]models.EnrichedEntry{}
	for _, e := range entries {
		cell[fmt.Sprintf("%s-%d", e.Day, e.Period)] = e
	}

	for rowIdx, period := range periods {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row),
			fmt.Sprintf("Period %d (%s)", period, times[period]))
		for i, day := range models.DaysOfWeek {
			e, ok := cell[fmt.Sprintf("%s-%d", day, period)]
			if !ok {
				continue
			}
			col, _ := excelize.ColumnNumberToName(i + 2)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row),
				fmt.Sprintf("%s (%s)\n%s\n%s", e.SubjectName, e.SubjectCode, e.FacultyName, e.ClassroomName))
		}
	}

	for col := 1; col <= len(models.DaysOfWeek)+1; col++ {
		name, _ := excelize.ColumnNumberToName(col)
		f.SetColWidth(sheet, name, name, 24)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		respondFail(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="timetable.xlsx"`)
	c.Writer.Write(buf.Bytes())
}
