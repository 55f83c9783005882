/*
Command discount fits delay discounting models to intertemporal choice data
and tests hypotheses about how a state such as hunger changes discounting.

Contents

  Program overview
  Installing
  Command line usage
  Configuration
  File formats
  Algorithm outline


Program overview

Input is a directory of session logs.  Each log records one participant
choosing between a sooner and a later reward, many times, for one commodity
(food, money, or music) in one condition (fed or hungry, for example).
Four discount functions are fit to each log: exponential, hyperbolic,
modified Rachlin, and hyperboloid.  Fits are scored and compared, and
results are collected into one CSV table per discount function.

A second step reads a results table and compares six hypotheses about how
the state condition changes the area under the discount curve relative to
the baseline condition.

Sample run:

  $ discount fit -o results data/
  discount version 1.0 Go source.

  AB-food-fed-20170101-1200.txt
  Rank Model              WAIC    dWAIC Weight LogLoss    AUC ROCAUC
     1 Hyperbolic        48.31     0.00  0.512  0.1843 0.4122 0.9412
     2 ModifiedRachlin   49.02     0.71  0.359  0.1822 0.4187 0.9417
     3 Hyperboloid       51.44     3.13  0.107  0.1851 0.4093 0.9405
     4 Exponential       55.90     7.59  0.012  0.2270 0.3511 0.9358
  ...

Rank 1 is the model with the lowest WAIC.  Weight is the relative
likelihood exp(-dWAIC/2), normalized over the models compared.  A "*"
following a line marks a fit whose chains did not converge, that is, a
split R-hat above 1.1.  Unconverged fits are reported, not retried.

  $ discount hyp results/hyperbolic.csv


Installing

    go install github.com/soniakeys/discount@latest


Command line usage

  discount fit [flags] <dir|file>...
  discount hyp [flags] <results.csv>
  discount version

Fit options:

  -m, --models      models to fit, by name or abbreviation (Exp, Hyp, MR, HB)
      --draws       retained draws per chain
      --tune        tuning iterations per chain
      --chains      chains per fit
      --seed        random seed
      --repeatable  seed each fit from seed and file name
      --epsilon     lapse rate of the choice rule
      --max-delay   delay range of AUC
  -j, --workers     files fit concurrently
  -o, --out         output directory
      --curves      write fitted curves and observed points per file
      --headings    print headings
      --pattern     file name pattern within directories

Hyp options:

      --state       state condition, default hungry
      --baseline    baseline condition, default fed

Global options:

  -c, --config      config file
  -v, --verbose     development logging

Files are fit concurrently but comparisons print in sorted file order.
The first error stops the batch.  Rerunning overwrites previous output.


Configuration

Settings come from, in increasing precedence: built in defaults, a YAML
config file, environment variables, and command line flags.  The config
file is discount.yaml in the working directory if present, or the file
named with -c, which then must exist.  Keys are

  models, draws, tune, chains, seed, repeatable, epsilon, max_delay,
  workers, out_dir, curves, headings, pattern, state_condition,
  baseline_condition

Environment variables are the keys in upper case with the prefix
DISCOUNT_, for example DISCOUNT_DRAWS=2000.  A .env file in the working
directory is loaded if present.

Log lines go to stderr as JSON, or in console format with -v.  Each run is
tagged with a unique run id.


File formats

Session log names have five fields separated by "-":

  ID-commodity-condition-YYYYMMDD-HHMM.txt

Logs are tab separated with a heading line.  Columns A, DA, B, DB, and R
are required; others are ignored.  A and B are reward amounts, DA and DB
their delays in days, and R is 1 if the later prospect B was chosen, 0 if
A was chosen.

Result tables have columns

  id, commodity, condition, model, log_loss, AUC, WAIC, roc_auc

followed by the posterior mean of each discount function parameter.
Values that could not be computed are written as NaN.

With --curves, the curves subdirectory of the output directory gets two
files per session: <name>.curves.csv with the fitted discount fraction of
each model at 500 delays, and <name>.points.csv with the observed delays,
reward ratios A/B, and responses.


Algorithm outline

1.  The probability of choosing the later prospect is

	P = ε + (1-2ε)·Φ((VB-VA)/α)

where VA and VB are rewards multiplied by the discount fraction at their
delays, Φ is the standard normal CDF, and α is a noise parameter.

2.  The posterior of the discount parameters and α is sampled by
component-wise random walk Metropolis, parameters constrained positive
being sampled on the log scale.  Chains start at a posterior mode found by
Nelder-Mead, step sizes are adapted during tuning, and tuning draws are
discarded.  From halfway through tuning each iteration also makes a joint
move of all parameters, proposed with the covariance of the chain's own
tuning draws, so that correlated parameters mix.

3.  Fits are scored by log loss and ROC AUC, averaged over draws, by WAIC,
and by the area under the posterior mean discount curve over delays 0 to
30 days, normalized to [0,1].

4.  Hypotheses model per participant AUC changes for each commodity as
Cauchy distributed with hypothesis specific locations and a common scale.
They are fit by maximum likelihood and scored by AIC and BIC.

-------------
Public domain.
*/
package main
