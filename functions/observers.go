package functions

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/logs"
	"github.com/cube2222/vtable/vtable"
)

var observedRows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vtable",
		Subsystem: "progress",
		Name:      "rows_total",
		Help:      "Rows seen by progress observers, by observer name.",
	},
	[]string{"observer"},
)

const defaultProgressInterval = 100000

type progress struct {
	name  string
	every int64
}

// Progress counts the rows passing through it in the vtable_progress_rows_total metric
// and logs the count every given number of rows and when the cursor is closed.
func Progress(name string, every int64) execution.ObserverFactory {
	return progress{name: name, every: every}
}

func newProgress(parameters []string) (execution.ObserverFactory, error) {
	switch len(parameters) {
	case 1:
		return Progress(parameters[0], defaultProgressInterval), nil
	case 2:
		every, err := strconv.ParseInt(parameters[1], 10, 64)
		if err != nil || every <= 0 {
			return nil, errors.Wrapf(vtable.ErrInvalidSpec, "invalid progress interval '%s'", parameters[1])
		}
		return Progress(parameters[0], every), nil
	}
	return nil, errors.Wrapf(vtable.ErrInvalidSpec, "expected a name and an optional interval, got %d parameters", len(parameters))
}

func (f progress) Name() string {
	return "progress"
}

func (f progress) Parameters() []string {
	return []string{f.name, strconv.FormatInt(f.every, 10)}
}

func (f progress) CreateObserver(inputs []access.ReadAccess) (execution.Observer, error) {
	return &progressObserver{
		name:    f.name,
		every:   f.every,
		counter: observedRows.WithLabelValues(f.name),
	}, nil
}

type progressObserver struct {
	name    string
	every   int64
	counter prometheus.Counter
	rows    int64
}

func (o *progressObserver) Update() error {
	o.rows++
	o.counter.Inc()
	if o.every > 0 && o.rows%o.every == 0 {
		logs.Logger().Info("progress", zap.String("observer", o.name), zap.Int64("rows", o.rows))
	}
	return nil
}

func (o *progressObserver) Close() error {
	logs.Logger().Debug("observer closed", zap.String("observer", o.name), zap.Int64("rows", o.rows))
	return nil
}
