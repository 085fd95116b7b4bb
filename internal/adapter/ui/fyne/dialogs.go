package fyne

import (
	"strconv"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/trackdraft/trackdraft/internal/domain"
)

// ShowSettingsDialog opens the visualizer configuration form. Each visualizer
// has its own section; applying calls onApply with the edited settings.
func ShowSettingsDialog(window fyneapp.Window, current domain.VisualizerSettings, onApply func(domain.VisualizerSettings)) {
	edited := current

	// FFT bars
	barsEnabled := widget.NewCheck("Enabled", func(v bool) { edited.FFTBars.Enabled = v })
	barsEnabled.SetChecked(current.FFTBars.Enabled)

	barCount := widget.NewSlider(8, 128)
	barCount.Step = 8
	barCount.SetValue(float64(current.FFTBars.BarCount))
	barCount.OnChanged = func(v float64) { edited.FFTBars.BarCount = int(v) }

	logScale := widget.NewCheck("Logarithmic scale", func(v bool) { edited.FFTBars.LogScale = v })
	logScale.SetChecked(current.FFTBars.LogScale)

	// Oscilloscope
	scopeEnabled := widget.NewCheck("Enabled", func(v bool) { edited.Oscilloscope.Enabled = v })
	scopeEnabled.SetChecked(current.Oscilloscope.Enabled)

	scopeMode := widget.NewSelect([]string{
		string(domain.ScopeLine),
		string(domain.ScopeDots),
		string(domain.ScopeBars),
	}, func(v string) { edited.Oscilloscope.Mode = domain.ScopeDrawMode(v) })
	scopeMode.SetSelected(string(current.Oscilloscope.Mode))

	sensitivity := widget.NewSlider(0.1, 4.0)
	sensitivity.Step = 0.1
	sensitivity.SetValue(current.Oscilloscope.Sensitivity)
	sensitivity.OnChanged = func(v float64) { edited.Oscilloscope.Sensitivity = v }

	scopeFill := widget.NewCheck("Fill", func(v bool) { edited.Oscilloscope.Fill = v })
	scopeFill.SetChecked(current.Oscilloscope.Fill)

	scopeInvert := widget.NewCheck("Invert", func(v bool) { edited.Oscilloscope.InvertY = v })
	scopeInvert.SetChecked(current.Oscilloscope.InvertY)

	// Spectrogram
	spectroEnabled := widget.NewCheck("Enabled", func(v bool) { edited.Spectrogram.Enabled = v })
	spectroEnabled.SetChecked(current.Spectrogram.Enabled)

	colorMap := widget.NewSelect([]string{"heat", "mono"}, func(v string) { edited.Spectrogram.ColorMap = v })
	colorMap.SetSelected(current.Spectrogram.ColorMap)

	timeScale := widget.NewSlider(0.25, 4.0)
	timeScale.Step = 0.25
	timeScale.SetValue(current.Spectrogram.TimeScale)
	timeScale.OnChanged = func(v float64) { edited.Spectrogram.TimeScale = v }

	historyLabel := widget.NewLabel(strconv.Itoa(current.Spectrogram.HistoryColumns) + " columns")

	form := container.NewVBox(
		widget.NewLabelWithStyle("Frequency Bars", fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true}),
		barsEnabled, barCount, logScale,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Oscilloscope", fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true}),
		scopeEnabled, scopeMode, sensitivity, scopeFill, scopeInvert,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Spectrogram", fyneapp.TextAlignLeading, fyneapp.TextStyle{Bold: true}),
		spectroEnabled, colorMap, timeScale, historyLabel,
	)

	dialog.ShowCustomConfirm("Visualizer Settings", "Apply", "Cancel", form, func(apply bool) {
		if !apply || onApply == nil {
			return
		}
		onApply(edited)
	}, window)
}
