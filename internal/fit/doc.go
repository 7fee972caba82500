// Package fit fits parametric probability densities to abundance histograms
// and picks the best-fitting shape.
//
// # Models
//
// Five shapes are registered by name:
//
//   - log-normal: standard log-normal density, parameters (u, s)
//   - lognormal_powerlaw: log-normal up to the sample mean, power law above, (u, slope, s)
//   - powerlaw: amp * x^-slope, (slope, amp)
//   - truncated_powerlaw: amp * x^-slope * exp(-xc/x), (slope, amp, xc)
//   - gaussian_powerlaw: normal core with a power-law tail, (mu, slope, sigma)
//
// Each model derives its own initial guess and bounds; the log-normal family
// needs the mean and standard deviation of the unbinned sample for that.
//
// # Fitting one model
//
//	h, _ := histogram.New(edges, counts)
//	res, err := fit.FitPDF(h, fit.PowerLaw)
//	if err != nil {
//	    return err
//	}
//	y := res.Evaluate(1.0)
//
// # Picking the best model
//
//	res, err := fit.FitMultifunctionPDF(h, &histogram.SummaryStats{Mean: m, Std: s})
//
// tries log-normal, lognormal_powerlaw and powerlaw in that order and returns
// the one with the smallest error score, sum(|obs-fit|^2/obs) over bins with
// positive observed density. Candidates whose solve fails are left out; if
// none remains a *NoCandidateFitError is returned.
//
// All functions are pure: results never share state, so independent
// histograms can be fitted from separate goroutines.
package fit
