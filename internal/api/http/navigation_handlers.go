package http

import (
	"net/http"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/gin-gonic/gin"
)

// ListTypes lists navigation types with a stored opened list
func (h *Handlers) ListTypes(c *gin.Context) {
	types := h.dispatcher.OpenTypes()
	views := make([]TypeView, len(types))
	for i, t := range types {
		views[i] = typeView(t)
	}
	c.JSON(http.StatusOK, gin.H{"types": views})
}

// ListOpened lists live opened view-models for every non-empty type
func (h *Handlers) ListOpened(c *gin.Context) {
	all := h.dispatcher.AllOpened()
	opened := make(map[string][]OpenedView, len(all))
	total := 0
	for t, infos := range all {
		opened[t.Key()] = openedViews(infos)
		total += len(infos)
	}
	c.JSON(http.StatusOK, gin.H{
		"opened": opened,
		"total":  total,
	})
}

// GetOpened lists the opened view-models of one type. Without an operation
// query the first open type with that name is used.
func (h *Handlers) GetOpened(c *gin.Context) {
	name := c.Param("type")
	if err := ValidateTypeName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	typ, ok := h.resolveType(name, c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"type":   TypeView{Key: name, Name: name},
			"opened": []OpenedView{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":   typeView(typ),
		"opened": openedViews(h.dispatcher.Opened(typ)),
	})
}

func (h *Handlers) resolveType(name string, c *gin.Context) (navigation.Type, bool) {
	if op, ok := c.GetQuery("operation"); ok {
		return navigation.NewType(name, navigation.OperationType(op)), true
	}
	for _, t := range h.dispatcher.OpenTypes() {
		if t.Name == name {
			return t, true
		}
	}
	return navigation.Type{}, false
}
