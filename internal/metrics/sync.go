package metrics

// RecordPull records a remote document pull
func (m *Metrics) RecordPull(trigger string, err error) {
	m.safeExecute("RecordPull", func() {
		m.SyncPullsTotal.WithLabelValues(trigger, result(err)).Inc()
	})
}

// RecordPush records a remote document write
func (m *Metrics) RecordPush(kind string, err error) {
	m.safeExecute("RecordPush", func() {
		m.SyncPushesTotal.WithLabelValues(kind, result(err)).Inc()
	})
}

// RecordSkip records a remote task list that was not applied
func (m *Metrics) RecordSkip(reason string) {
	m.safeExecute("RecordSkip", func() {
		m.SyncSkippedTotal.WithLabelValues(reason).Inc()
	})
}

// SetOnline sets the connection state gauge
func (m *Metrics) SetOnline(online bool) {
	m.safeExecute("SetOnline", func() {
		if online {
			m.SyncConnectionState.Set(1)
		} else {
			m.SyncConnectionState.Set(0)
		}
	})
}

// SetBoardSize sets the task count and payload size gauges
func (m *Metrics) SetBoardSize(tasks, payloadBytes int) {
	m.safeExecute("SetBoardSize", func() {
		m.BoardTasks.Set(float64(tasks))
		m.BoardPayloadBytes.Set(float64(payloadBytes))
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
